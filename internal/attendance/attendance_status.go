package attendance

import "time"

// ProjectStatus derives the live status from the open entry (nil when
// none) and the employee's entries for the current day. An overdue open
// entry is treated as already expired.
func ProjectStatus(open *Entry, today []Entry, now time.Time) AttendanceStatus {
	var st AttendanceStatus

	for _, e := range today {
		e = project(e, now)
		if e.IsOpen() {
			continue
		}
		if d := e.DurationMinutes(); d != nil {
			st.TodayTotalMinutes += *d
		}
	}

	if open == nil {
		return st
	}
	current := project(*open, now)
	if !current.IsOpen() {
		return st
	}

	elapsed := now.Sub(current.ClockIn)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := AutoExpireAfter - elapsed
	if remaining < 0 {
		remaining = 0
	}

	st.IsClocked = true
	st.EntryID = strPtr(current.ID.String())
	st.ClockedInAt = strPtr(current.ClockIn.UTC().Format(time.RFC3339))
	st.ElapsedSeconds = int64(elapsed / time.Second)
	st.ExpiresInSeconds = int64(remaining / time.Second)
	st.WillAutoExpire = remaining <= ExpiryWarningWindow
	return st
}
