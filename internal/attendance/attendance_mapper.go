package attendance

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

func mapToResponse(e Entry) EntryResponse {
	res := EntryResponse{
		ID:                e.ID.String(),
		CompanyID:         e.CompanyID.String(),
		EmployeeID:        e.EmployeeID.String(),
		Date:              e.AttendanceDate.Format(dateLayout),
		ClockIn:           e.ClockIn.UTC().Format(time.RFC3339),
		DurationMinutes:   e.DurationMinutes(),
		WorkSummary:       e.WorkSummary,
		Status:            e.Status,
		IsFlagged:         e.IsFlagged,
		FlagReason:        e.FlagReason,
		EditReason:        e.EditReason,
		ManualEntryReason: e.ManualEntryReason,
		IsManualEntry:     e.IsManualEntry,
		DeviceInfo:        e.DeviceInfo,
	}
	if e.ClockOut != nil {
		res.ClockOut = strPtr(e.ClockOut.UTC().Format(time.RFC3339))
	}
	return res
}

func mapToListResponse(rows []Entry, now time.Time) []EntryResponse {
	res := make([]EntryResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(project(r, now))
	}
	return res
}

func mapRevisionResponse(r EntryRevision) RevisionResponse {
	res := RevisionResponse{
		ID:        r.ID.String(),
		EntryID:   r.EntryID.String(),
		Action:    r.Action,
		Reason:    r.Reason,
		Before:    rawOrNull(r.Before),
		After:     rawOrNull(r.After),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.ActorID != nil {
		res.ActorID = strPtr(r.ActorID.String())
	}
	return res
}

func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

// snapshot is the JSON form stored on revisions.
func snapshot(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(mapToResponse(*e))
}
