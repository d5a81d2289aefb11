package attendance_test

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"go-attendance/internal/attendance"
	attendanceerrors "go-attendance/internal/attendance/errors"

	"github.com/stretchr/testify/assert"
)

func exportFixture() []attendance.EntryResponse {
	out := "2026-03-09T17:00:00Z"
	minutes := 480
	summary := "onboarding, with commas"
	reason := "badge reader down"
	return []attendance.EntryResponse{
		{
			ID:                "a1",
			EmployeeID:        "e1",
			Date:              "2026-03-09",
			ClockIn:           "2026-03-09T09:00:00Z",
			ClockOut:          &out,
			DurationMinutes:   &minutes,
			WorkSummary:       &summary,
			Status:            attendance.StatusManual,
			IsManualEntry:     true,
			ManualEntryReason: &reason,
		},
		{
			ID:         "a2",
			EmployeeID: "e2",
			Date:       "2026-03-10",
			ClockIn:    "2026-03-10T08:00:00Z",
			Status:     attendance.StatusInProgress,
		},
	}
}

func TestExportCSV(t *testing.T) {
	out, err := attendance.ExportCSV(exportFixture(), "march-report.json")

	assert.NoError(t, err)
	assert.Equal(t, "march-report.csv", out.Filename)
	assert.Contains(t, out.ContentType, "text/csv")

	records, err := csv.NewReader(strings.NewReader(string(out.Body))).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "onboarding, with commas", records[1][7])
	assert.Equal(t, "480", records[1][5])
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "", records[2][5])
}

func TestExportJSON(t *testing.T) {
	out, err := attendance.ExportJSON(exportFixture(), "")

	assert.NoError(t, err)
	assert.Equal(t, "attendance.json", out.Filename)

	var doc struct {
		Count   int `json:"count"`
		Entries []struct {
			ID      string `json:"id"`
			Session struct {
				DurationMinutes *int `json:"duration_minutes"`
			} `json:"session"`
			Manual *struct {
				Reason string `json:"reason"`
			} `json:"manual"`
		} `json:"entries"`
	}
	assert.NoError(t, json.Unmarshal(out.Body, &doc))
	assert.Equal(t, 2, doc.Count)
	assert.Equal(t, 480, *doc.Entries[0].Session.DurationMinutes)
	assert.Equal(t, "badge reader down", doc.Entries[0].Manual.Reason)
	assert.Nil(t, doc.Entries[1].Session.DurationMinutes)
	assert.Nil(t, doc.Entries[1].Manual)
}

func TestExportEntries(t *testing.T) {
	out, err := attendance.ExportEntries(nil, "JSON", "../../etc/passwd")
	assert.NoError(t, err)
	assert.Equal(t, "passwd.json", out.Filename)

	out, err = attendance.ExportEntries(nil, "", "2026.03")
	assert.NoError(t, err)
	assert.Equal(t, "2026.03.csv", out.Filename)

	_, err = attendance.ExportEntries(nil, "xlsx", "x")
	assert.ErrorIs(t, err, attendanceerrors.ErrInvalidExportFormat)
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]string{"": "csv", "CSV": "csv", " Json ": "json"} {
		got, err := attendance.ParseExportFormat(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := attendance.ParseExportFormat("pdf")
	assert.ErrorIs(t, err, attendanceerrors.ErrInvalidExportFormat)
}
