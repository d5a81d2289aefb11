package attendance

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	AutoExpireAfter     = 240 * time.Minute
	ExpiryWarningWindow = 30 * time.Minute

	MinWorkSummaryLength = 10
	MinReasonLength      = 5
)

// isOverdue reports whether an open entry has run past the auto-expiry cap.
func isOverdue(e Entry, now time.Time) bool {
	return e.Status == StatusInProgress && now.Sub(e.ClockIn) > AutoExpireAfter
}

// expire closes e at exactly clockIn+cap, independent of when it runs.
func expire(e *Entry) {
	out := e.ClockIn.Add(AutoExpireAfter)
	e.ClockOut = &out
	e.Status = StatusAutoExpired
}

// project returns the entry as it must be observed at now. It is the
// read-side twin of the sweep and never touches storage.
func project(e Entry, now time.Time) Entry {
	if isOverdue(e, now) {
		expire(&e)
	}
	return e
}

func isTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusAutoExpired, StatusEdited, StatusManual:
		return true
	default:
		return false
	}
}

func isAllowedStatusTransition(currentStatus, targetStatus string) bool {
	switch targetStatus {
	case StatusCompleted, StatusAutoExpired:
		return currentStatus == StatusInProgress
	case StatusEdited:
		return isTerminal(currentStatus)
	default:
		return false
	}
}

func isValidStatusFilter(status string) bool {
	switch status {
	case "", StatusInProgress, StatusCompleted, StatusAutoExpired, StatusEdited, StatusManual, StatusFlagged:
		return true
	default:
		return false
	}
}

func trimmedLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// calendarDay is the reporting-timezone date of t, stored as UTC midnight.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}
