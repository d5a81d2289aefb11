package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRateLimited  = "TOO_MANY_REQUESTS"
	CodeProcessing   = "PROCESSING"

	// Attendance kinds
	CodeAlreadyClockedIn = "ALREADY_CLOCKED_IN"
	CodeNoOpenSession    = "NO_OPEN_SESSION"
	CodeEntryNotFound    = "ENTRY_NOT_FOUND"
	CodeInvalidRange     = "INVALID_RANGE"
	CodeSummaryTooShort  = "SUMMARY_TOO_SHORT"
	CodeReasonTooShort   = "REASON_TOO_SHORT"
	CodeEmployeeRequired = "EMPLOYEE_REQUIRED"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
