package attendance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-attendance/internal/attendance"
	attendanceerrors "go-attendance/internal/attendance/errors"
	"go-attendance/internal/shared/apperror"
	"go-attendance/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAttendanceService struct {
	ClockInFn           func(ctx context.Context, companyID, employeeID string, req attendance.ClockInRequest) (attendance.EntryResponse, error)
	ClockOutFn          func(ctx context.Context, companyID, employeeID string, req attendance.ClockOutRequest) (attendance.EntryResponse, error)
	GetStatusFn         func(ctx context.Context, companyID, employeeID string) (attendance.AttendanceStatus, error)
	GetTodayFn          func(ctx context.Context, companyID, employeeID string) ([]attendance.EntryResponse, error)
	EditEntryFn         func(ctx context.Context, companyID, actorID, id string, req attendance.EditEntryRequest) (attendance.EntryResponse, error)
	SetFlagFn           func(ctx context.Context, companyID, actorID, id string, req attendance.SetFlagRequest) (attendance.EntryResponse, error)
	CreateManualEntryFn func(ctx context.Context, companyID, actorID string, req attendance.ManualEntryRequest) (attendance.EntryResponse, error)
	QueryEntriesFn      func(ctx context.Context, companyID string, filter attendance.QueryFilter) (attendance.QueryResult, error)
	GetHistoryFn        func(ctx context.Context, companyID, id string) ([]attendance.RevisionResponse, error)
}

func (f *fakeAttendanceService) ClockIn(ctx context.Context, companyID, employeeID string, req attendance.ClockInRequest) (attendance.EntryResponse, error) {
	return f.ClockInFn(ctx, companyID, employeeID, req)
}
func (f *fakeAttendanceService) ClockOut(ctx context.Context, companyID, employeeID string, req attendance.ClockOutRequest) (attendance.EntryResponse, error) {
	return f.ClockOutFn(ctx, companyID, employeeID, req)
}
func (f *fakeAttendanceService) SweepExpired(context.Context, time.Time) ([]attendance.EntryResponse, error) {
	return nil, nil
}
func (f *fakeAttendanceService) GetStatus(ctx context.Context, companyID, employeeID string) (attendance.AttendanceStatus, error) {
	return f.GetStatusFn(ctx, companyID, employeeID)
}
func (f *fakeAttendanceService) GetToday(ctx context.Context, companyID, employeeID string) ([]attendance.EntryResponse, error) {
	return f.GetTodayFn(ctx, companyID, employeeID)
}
func (f *fakeAttendanceService) EditEntry(ctx context.Context, companyID, actorID, id string, req attendance.EditEntryRequest) (attendance.EntryResponse, error) {
	return f.EditEntryFn(ctx, companyID, actorID, id, req)
}
func (f *fakeAttendanceService) SetFlag(ctx context.Context, companyID, actorID, id string, req attendance.SetFlagRequest) (attendance.EntryResponse, error) {
	return f.SetFlagFn(ctx, companyID, actorID, id, req)
}
func (f *fakeAttendanceService) CreateManualEntry(ctx context.Context, companyID, actorID string, req attendance.ManualEntryRequest) (attendance.EntryResponse, error) {
	return f.CreateManualEntryFn(ctx, companyID, actorID, req)
}
func (f *fakeAttendanceService) QueryEntries(ctx context.Context, companyID string, filter attendance.QueryFilter) (attendance.QueryResult, error) {
	return f.QueryEntriesFn(ctx, companyID, filter)
}
func (f *fakeAttendanceService) GetHistory(ctx context.Context, companyID, id string) ([]attendance.RevisionResponse, error) {
	return f.GetHistoryFn(ctx, companyID, id)
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Ok    bool                     `json:"ok"`
	Data  json.RawMessage          `json:"data"`
	Meta  *response.PaginationMeta `json:"meta"`
	Error *envelopeError           `json:"error"`
}

type handlerDeps struct {
	router     *gin.Engine
	svc        *fakeAttendanceService
	companyID  string
	employeeID string
}

func setupHandlerTest(t *testing.T) *handlerDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperror.Init()

	svc := &fakeAttendanceService{}
	r := gin.New()
	attendance.RegisterRoutes(r.Group("/api/v1"), attendance.NewHandler(svc, zap.NewNop()), attendance.RouteOptions{
		Logger:     zap.NewNop(),
		ClockBurst: 100,
	})

	return &handlerDeps{
		router:     r,
		svc:        svc,
		companyID:  uuid.New().String(),
		employeeID: uuid.New().String(),
	}
}

func (d *handlerDeps) do(t *testing.T, method, path, role, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Company-ID", d.companyID)
	req.Header.Set("X-Employee-ID", d.employeeID)
	if role != "" {
		req.Header.Set("X-Role", role)
	}

	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAttendanceHandler_ClockIn(t *testing.T) {
	t.Run("success with empty body", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.ClockInFn = func(ctx context.Context, companyID, employeeID string, req attendance.ClockInRequest) (attendance.EntryResponse, error) {
			assert.Equal(t, d.companyID, companyID)
			assert.Equal(t, d.employeeID, employeeID)
			assert.Nil(t, req.DeviceInfo)
			return attendance.EntryResponse{ID: "entry-1", Status: attendance.StatusInProgress}, nil
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-in", "", "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Ok)
		assert.Contains(t, string(env.Data), `"status":"IN_PROGRESS"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("invalid latitude", func(t *testing.T) {
		d := setupHandlerTest(t)

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-in", "", `{"latitude": 123.4}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("already clocked in", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.ClockInFn = func(context.Context, string, string, attendance.ClockInRequest) (attendance.EntryResponse, error) {
			return attendance.EntryResponse{}, attendanceerrors.ErrAlreadyClockedIn
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-in", "", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Ok)
		assert.Equal(t, "ALREADY_CLOCKED_IN", env.Error.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		d := setupHandlerTest(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendances/clock-in", nil)
		w := httptest.NewRecorder()

		d.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAttendanceHandler_ClockOut(t *testing.T) {
	t.Run("summary too short", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.ClockOutFn = func(_ context.Context, _, _ string, req attendance.ClockOutRequest) (attendance.EntryResponse, error) {
			assert.Equal(t, "meh", req.WorkSummary)
			return attendance.EntryResponse{}, attendanceerrors.ErrSummaryTooShort
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-out", "", `{"work_summary":"meh"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "SUMMARY_TOO_SHORT", env.Error.Code)
	})

	t.Run("empty body reaches the summary check", func(t *testing.T) {
		d := setupHandlerTest(t)
		called := false
		d.svc.ClockOutFn = func(_ context.Context, _, _ string, req attendance.ClockOutRequest) (attendance.EntryResponse, error) {
			called = true
			assert.Empty(t, req.WorkSummary)
			return attendance.EntryResponse{}, attendanceerrors.ErrSummaryTooShort
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-out", "", "")

		assert.True(t, called)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "SUMMARY_TOO_SHORT", env.Error.Code)
	})

	t.Run("storage failure is generic", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.ClockOutFn = func(context.Context, string, string, attendance.ClockOutRequest) (attendance.EntryResponse, error) {
			return attendance.EntryResponse{}, assert.AnError
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/clock-out", "", `{"work_summary":"shipped the release"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
		assert.NotContains(t, env.Error.Message, assert.AnError.Error())
	})
}

func TestAttendanceHandler_GetStatus(t *testing.T) {
	d := setupHandlerTest(t)
	d.svc.GetStatusFn = func(context.Context, string, string) (attendance.AttendanceStatus, error) {
		return attendance.AttendanceStatus{IsClocked: true, WillAutoExpire: true, ExpiresInSeconds: 900}, nil
	}

	w, env := d.do(t, http.MethodGet, "/api/v1/attendances/status", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"will_auto_expire":true`)
	assert.Contains(t, string(env.Data), `"expires_in_seconds":900`)
}

func TestAttendanceHandler_Query(t *testing.T) {
	t.Run("employees are forbidden", func(t *testing.T) {
		d := setupHandlerTest(t)

		w, env := d.do(t, http.MethodGet, "/api/v1/attendances", "EMPLOYEE", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("results count and meta", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.QueryEntriesFn = func(_ context.Context, companyID string, f attendance.QueryFilter) (attendance.QueryResult, error) {
			assert.Equal(t, d.companyID, companyID)
			assert.Equal(t, "FLAGGED", f.Status)
			assert.Equal(t, 2, f.Page)
			assert.Equal(t, 20, f.PageSize)
			return attendance.QueryResult{
				Results:  []attendance.EntryResponse{{ID: "a"}},
				Count:    21,
				Page:     2,
				PageSize: 20,
			}, nil
		}

		w, env := d.do(t, http.MethodGet, "/api/v1/attendances?status=FLAGGED&page=2&page_size=20", "admin", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Results []attendance.EntryResponse `json:"results"`
			Count   int64                      `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Len(t, data.Results, 1)
		assert.Equal(t, int64(21), data.Count)
		assert.Equal(t, 2, env.Meta.TotalPages)
	})
}

func TestAttendanceHandler_Export(t *testing.T) {
	t.Run("csv attachment", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.QueryEntriesFn = func(context.Context, string, attendance.QueryFilter) (attendance.QueryResult, error) {
			return attendance.QueryResult{Results: []attendance.EntryResponse{{ID: "a", Status: attendance.StatusCompleted}}, Count: 1}, nil
		}

		w, _ := d.do(t, http.MethodGet, "/api/v1/attendances/export?format=csv&filename=march", "HR", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="march.csv"`, w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Body.String(), "a,,")
	})

	t.Run("format is case insensitive", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.QueryEntriesFn = func(context.Context, string, attendance.QueryFilter) (attendance.QueryResult, error) {
			return attendance.QueryResult{Results: []attendance.EntryResponse{{ID: "a"}}, Count: 1}, nil
		}

		w, _ := d.do(t, http.MethodGet, "/api/v1/attendances/export?format=CSV&filename=march", "HR", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="march.csv"`, w.Header().Get("Content-Disposition"))
	})

	t.Run("unknown format", func(t *testing.T) {
		d := setupHandlerTest(t)

		w, env := d.do(t, http.MethodGet, "/api/v1/attendances/export?format=pdf", "HR", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}

func TestAttendanceHandler_Corrections(t *testing.T) {
	t.Run("edit passes actor and id", func(t *testing.T) {
		d := setupHandlerTest(t)
		entryID := uuid.New().String()
		d.svc.EditEntryFn = func(_ context.Context, _, actorID, id string, req attendance.EditEntryRequest) (attendance.EntryResponse, error) {
			assert.Equal(t, d.employeeID, actorID)
			assert.Equal(t, entryID, id)
			assert.Equal(t, "forgot", req.EditReason)
			return attendance.EntryResponse{ID: id, Status: attendance.StatusEdited}, nil
		}

		w, env := d.do(t, http.MethodPut, "/api/v1/attendances/"+entryID, "ADMIN",
			`{"clock_in":"2026-03-09T09:00:00Z","clock_out":"2026-03-09T17:00:00Z","edit_reason":"forgot"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"status":"EDITED"`)
	})

	t.Run("edit requires both times", func(t *testing.T) {
		d := setupHandlerTest(t)

		w, env := d.do(t, http.MethodPut, "/api/v1/attendances/"+uuid.New().String(), "ADMIN", `{"edit_reason":"forgot"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Clock In is required", env.Error.Message)
	})

	t.Run("flag requires is_flagged", func(t *testing.T) {
		d := setupHandlerTest(t)

		w, _ := d.do(t, http.MethodPatch, "/api/v1/attendances/"+uuid.New().String()+"/flag", "ADMIN", `{"flag_reason":"odd hours"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("manual entry", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.CreateManualEntryFn = func(_ context.Context, _, _ string, req attendance.ManualEntryRequest) (attendance.EntryResponse, error) {
			assert.Equal(t, "badge reader down", req.ManualEntryReason)
			return attendance.EntryResponse{ID: "m1", Status: attendance.StatusManual, IsManualEntry: true}, nil
		}

		w, env := d.do(t, http.MethodPost, "/api/v1/attendances/manual", "ADMIN",
			`{"employee_id":"`+uuid.New().String()+`","clock_in":"2026-03-09T09:00:00Z","clock_out":"2026-03-09T12:00:00Z","manual_entry_reason":"badge reader down"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, string(env.Data), `"is_manual_entry":true`)
	})

	t.Run("history not found", func(t *testing.T) {
		d := setupHandlerTest(t)
		d.svc.GetHistoryFn = func(context.Context, string, string) ([]attendance.RevisionResponse, error) {
			return nil, attendanceerrors.ErrEntryNotFound
		}

		w, env := d.do(t, http.MethodGet, "/api/v1/attendances/"+uuid.New().String()+"/history", "ADMIN", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ENTRY_NOT_FOUND", env.Error.Code)
	})
}
