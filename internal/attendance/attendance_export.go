package attendance

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	attendanceerrors "go-attendance/internal/attendance/errors"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// Export is a serialised result set ready to be sent as a file.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

var csvHeader = []string{
	"id", "employee_id", "date", "clock_in", "clock_out", "duration_minutes",
	"status", "work_summary", "is_flagged", "flag_reason", "edit_reason",
	"is_manual_entry", "manual_entry_reason",
}

// ExportCSV writes entries as they are, without filtering or paging.
func ExportCSV(entries []EntryResponse, filename string) (Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return Export{}, err
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.EmployeeID,
			e.Date,
			e.ClockIn,
			deref(e.ClockOut),
			intOrEmpty(e.DurationMinutes),
			e.Status,
			deref(e.WorkSummary),
			strconv.FormatBool(e.IsFlagged),
			deref(e.FlagReason),
			deref(e.EditReason),
			strconv.FormatBool(e.IsManualEntry),
			deref(e.ManualEntryReason),
		}
		if err := w.Write(record); err != nil {
			return Export{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Export{}, err
	}

	return Export{
		Filename:    withExtension(filename, ExportFormatCSV),
		ContentType: contentTypeCSV,
		Body:        buf.Bytes(),
	}, nil
}

type exportDocument struct {
	Count   int            `json:"count"`
	Entries []exportRecord `json:"entries"`
}

type exportRecord struct {
	ID         string            `json:"id"`
	EmployeeID string            `json:"employee_id"`
	Date       string            `json:"date"`
	Session    exportSession     `json:"session"`
	Status     string            `json:"status"`
	Review     exportReview      `json:"review"`
	Manual     *exportManualInfo `json:"manual,omitempty"`
}

type exportSession struct {
	ClockIn         string  `json:"clock_in"`
	ClockOut        *string `json:"clock_out"`
	DurationMinutes *int    `json:"duration_minutes"`
	WorkSummary     *string `json:"work_summary"`
}

type exportReview struct {
	IsFlagged  bool    `json:"is_flagged"`
	FlagReason *string `json:"flag_reason"`
	EditReason *string `json:"edit_reason"`
}

type exportManualInfo struct {
	Reason *string `json:"reason"`
}

func ExportJSON(entries []EntryResponse, filename string) (Export, error) {
	doc := exportDocument{
		Count:   len(entries),
		Entries: make([]exportRecord, len(entries)),
	}
	for i, e := range entries {
		rec := exportRecord{
			ID:         e.ID,
			EmployeeID: e.EmployeeID,
			Date:       e.Date,
			Session: exportSession{
				ClockIn:         e.ClockIn,
				ClockOut:        e.ClockOut,
				DurationMinutes: e.DurationMinutes,
				WorkSummary:     e.WorkSummary,
			},
			Status: e.Status,
			Review: exportReview{
				IsFlagged:  e.IsFlagged,
				FlagReason: e.FlagReason,
				EditReason: e.EditReason,
			},
		}
		if e.IsManualEntry {
			rec.Manual = &exportManualInfo{Reason: e.ManualEntryReason}
		}
		doc.Entries[i] = rec
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    withExtension(filename, ExportFormatJSON),
		ContentType: contentTypeJSON,
		Body:        body,
	}, nil
}

// ParseExportFormat normalises a requested format. Empty means csv.
func ParseExportFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatJSON:
		return ExportFormatJSON, nil
	default:
		return "", attendanceerrors.ErrInvalidExportFormat
	}
}

// ExportEntries dispatches on format, "csv" or "json".
func ExportEntries(entries []EntryResponse, format, filename string) (Export, error) {
	f, err := ParseExportFormat(format)
	if err != nil {
		return Export{}, err
	}
	if f == ExportFormatJSON {
		return ExportJSON(entries, filename)
	}
	return ExportCSV(entries, filename)
}

func withExtension(filename, ext string) string {
	name := strings.TrimSpace(filepath.Base(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "attendance"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case "." + ExportFormatCSV, "." + ExportFormatJSON:
		name = name[:len(name)-len(filepath.Ext(name))]
	}
	return name + "." + ext
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
