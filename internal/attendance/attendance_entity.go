package attendance

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	StatusInProgress  = "IN_PROGRESS"
	StatusCompleted   = "COMPLETED"
	StatusAutoExpired = "AUTO_EXPIRED"
	StatusEdited      = "EDITED"
	StatusManual      = "MANUAL"

	// StatusFlagged is a query-only pseudo status matching is_flagged rows.
	StatusFlagged = "FLAGGED"
)

// Entry is one attendance session. Rows are never deleted; corrections
// change status instead.
type Entry struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID         uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index:idx_attendance_company_status"`
	EmployeeID        uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index:idx_attendance_employee_date"`
	AttendanceDate    time.Time  `gorm:"column:attendance_date;type:date;not null;index:idx_attendance_employee_date"`
	ClockIn           time.Time  `gorm:"column:clock_in;type:timestamptz;not null"`
	ClockOut          *time.Time `gorm:"column:clock_out;type:timestamptz"`
	WorkSummary       *string    `gorm:"column:work_summary;type:text"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;index:idx_attendance_company_status"`
	IsFlagged         bool       `gorm:"column:is_flagged;not null;default:false"`
	FlagReason        *string    `gorm:"column:flag_reason;type:text"`
	EditReason        *string    `gorm:"column:edit_reason;type:text"`
	ManualEntryReason *string    `gorm:"column:manual_entry_reason;type:text"`
	IsManualEntry     bool       `gorm:"column:is_manual_entry;not null;default:false"`
	DeviceInfo        *string    `gorm:"column:device_info;type:varchar(255)"`
	Latitude          *float64   `gorm:"column:latitude"`
	Longitude         *float64   `gorm:"column:longitude"`
	CreatedBy         *uuid.UUID `gorm:"column:created_by;type:uuid"`
	EditedBy          *uuid.UUID `gorm:"column:edited_by;type:uuid"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (Entry) TableName() string {
	return "attendance_entries"
}

// DurationMinutes is round((clockOut-clockIn)/1m); nil while the session is open.
func (e Entry) DurationMinutes() *int {
	if e.ClockOut == nil {
		return nil
	}
	v := int(math.Round(e.ClockOut.Sub(e.ClockIn).Minutes()))
	return &v
}

func (e Entry) IsOpen() bool {
	return e.Status == StatusInProgress
}

const (
	ActionClockIn      = "CLOCK_IN"
	ActionClockOut     = "CLOCK_OUT"
	ActionAutoExpire   = "AUTO_EXPIRE"
	ActionEdit         = "EDIT"
	ActionFlag         = "FLAG"
	ActionUnflag       = "UNFLAG"
	ActionManualCreate = "MANUAL_CREATE"
)

// EntryRevision is the append-only audit trail of an entry.
type EntryRevision struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EntryID    uuid.UUID  `gorm:"column:entry_id;type:uuid;not null;index:idx_attendance_revisions_entry"`
	CompanyID  uuid.UUID  `gorm:"column:company_id;type:uuid;not null"`
	EmployeeID uuid.UUID  `gorm:"column:employee_id;type:uuid;not null"`
	Action     string     `gorm:"column:action;type:varchar(30);not null"`
	ActorID    *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	Reason     *string    `gorm:"column:reason;type:text"`
	Before     []byte     `gorm:"column:before_snapshot;type:jsonb"`
	After      []byte     `gorm:"column:after_snapshot;type:jsonb"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (EntryRevision) TableName() string {
	return "attendance_entry_revisions"
}
