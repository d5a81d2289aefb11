package events

import "time"

const (
	AttendanceEntryTopic       = "hr.attendance.entry.v1"
	AttendanceEntryChangedType = "attendance_entry_changed"
)

// AttendanceEntryChangedEvent is published for every state change of an
// attendance entry, including system-driven auto-expiry.
type AttendanceEntryChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EntryID    string    `json:"entry_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	IsFlagged  bool      `json:"is_flagged"`
	ActorID    string    `json:"actor_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
