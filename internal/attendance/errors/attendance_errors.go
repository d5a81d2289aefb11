package attendanceerrors

import (
	"net/http"

	"go-attendance/internal/shared/apperror"
)

var (
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeAlreadyClockedIn,
		"employee already has an open session",
		http.StatusConflict,
	)
	ErrNoOpenSession = apperror.New(
		apperror.CodeNoOpenSession,
		"no open session to clock out from",
		http.StatusConflict,
	)
	ErrEntryNotFound = apperror.New(
		apperror.CodeEntryNotFound,
		"attendance entry not found",
		http.StatusNotFound,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidRange,
		"clock_out must be after clock_in",
		http.StatusBadRequest,
	)
	ErrSummaryTooShort = apperror.New(
		apperror.CodeSummaryTooShort,
		"work_summary must be at least 10 characters",
		http.StatusBadRequest,
	)
	ErrEditReasonTooShort = apperror.New(
		apperror.CodeReasonTooShort,
		"edit_reason must be at least 5 characters",
		http.StatusBadRequest,
	)
	ErrFlagReasonTooShort = apperror.New(
		apperror.CodeReasonTooShort,
		"flag_reason must be at least 5 characters",
		http.StatusBadRequest,
	)
	ErrManualReasonTooShort = apperror.New(
		apperror.CodeReasonTooShort,
		"manual_entry_reason must be at least 5 characters",
		http.StatusBadRequest,
	)
	ErrFlagStateRequired = apperror.New(
		apperror.CodeInvalidInput,
		"is_flagged is required",
		http.StatusBadRequest,
	)
	ErrEmployeeRequired = apperror.New(
		apperror.CodeEmployeeRequired,
		"employee_id is required",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of IN_PROGRESS, COMPLETED, AUTO_EXPIRED, EDITED, MANUAL, FLAGGED",
		http.StatusBadRequest,
	)
	ErrInvalidExportFormat = apperror.New(
		apperror.CodeInvalidInput,
		"format must be csv or json",
		http.StatusBadRequest,
	)
	ErrEntryStillOpen = apperror.New(
		apperror.CodeInvalidState,
		"entry is still in progress and cannot be corrected",
		http.StatusBadRequest,
	)
	ErrClockBusy = apperror.New(
		apperror.CodeConflict,
		"another clock request for this employee is in progress",
		http.StatusConflict,
	)
)
