package attendance

import (
	"encoding/json"
	"time"
)

type ClockInRequest struct {
	DeviceInfo *string  `json:"device_info" binding:"omitempty,max=255"`
	Latitude   *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type ClockOutRequest struct {
	WorkSummary string `json:"work_summary"`
}

type EditEntryRequest struct {
	ClockIn    time.Time `json:"clock_in" binding:"required"`
	ClockOut   time.Time `json:"clock_out" binding:"required"`
	EditReason string    `json:"edit_reason"`
}

type SetFlagRequest struct {
	IsFlagged  *bool   `json:"is_flagged" binding:"required"`
	FlagReason *string `json:"flag_reason"`
}

type ManualEntryRequest struct {
	EmployeeID        string    `json:"employee_id"`
	ClockIn           time.Time `json:"clock_in" binding:"required"`
	ClockOut          time.Time `json:"clock_out" binding:"required"`
	WorkSummary       *string   `json:"work_summary"`
	ManualEntryReason string    `json:"manual_entry_reason"`
}

type QueryFilter struct {
	Date       string `form:"date"`
	Status     string `form:"status"`
	EmployeeID string `form:"employee_id"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type EntryResponse struct {
	ID                string  `json:"id"`
	CompanyID         string  `json:"company_id"`
	EmployeeID        string  `json:"employee_id"`
	Date              string  `json:"date"`
	ClockIn           string  `json:"clock_in"`
	ClockOut          *string `json:"clock_out"`
	DurationMinutes   *int    `json:"duration_minutes"`
	WorkSummary       *string `json:"work_summary"`
	Status            string  `json:"status"`
	IsFlagged         bool    `json:"is_flagged"`
	FlagReason        *string `json:"flag_reason"`
	EditReason        *string `json:"edit_reason"`
	ManualEntryReason *string `json:"manual_entry_reason"`
	IsManualEntry     bool    `json:"is_manual_entry"`
	DeviceInfo        *string `json:"device_info,omitempty"`
}

// AttendanceStatus is the live projection for one employee; never stored.
type AttendanceStatus struct {
	IsClocked         bool    `json:"is_clocked"`
	EntryID           *string `json:"entry_id"`
	ClockedInAt       *string `json:"clocked_in_at"`
	ElapsedSeconds    int64   `json:"elapsed_seconds"`
	WillAutoExpire    bool    `json:"will_auto_expire"`
	ExpiresInSeconds  int64   `json:"expires_in_seconds"`
	TodayTotalMinutes int     `json:"today_total_minutes"`
}

type QueryResult struct {
	Results  []EntryResponse `json:"results"`
	Count    int64           `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type RevisionResponse struct {
	ID        string          `json:"id"`
	EntryID   string          `json:"entry_id"`
	Action    string          `json:"action"`
	ActorID   *string         `json:"actor_id"`
	Reason    *string         `json:"reason"`
	Before    json.RawMessage `json:"before"`
	After     json.RawMessage `json:"after"`
	CreatedAt string          `json:"created_at"`
}
