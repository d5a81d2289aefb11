package attendance_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-attendance/internal/attendance"
	attendanceerrors "go-attendance/internal/attendance/errors"
	attendancemock "go-attendance/internal/attendance/mock"
	"go-attendance/internal/events"
	"go-attendance/internal/messaging/kafka"
	kafkamock "go-attendance/internal/messaging/kafka/mock"
	"go-attendance/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type txDeps struct {
	ctrl      *gomock.Controller
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	repo      *attendancemock.MockRepository
	outbox    *kafkamock.MockOutboxRepository
	service   attendance.Service
	now       time.Time
	companyID string
	employee  string
}

func setupTxTest(t *testing.T) *txDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := attendancemock.NewMockRepository(ctrl)
	outbox := kafkamock.NewMockOutboxRepository(ctrl)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	svc := attendance.NewService(db, repo,
		attendance.WithOutbox(outbox),
		attendance.WithClock(func() time.Time { return now }),
	)

	return &txDeps{
		ctrl:      ctrl,
		db:        db,
		sqlMock:   sqlMock,
		repo:      repo,
		outbox:    outbox,
		service:   svc,
		now:       now,
		companyID: uuid.New().String(),
		employee:  uuid.New().String(),
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// outboxEventFor matches an outbox row carrying the given action and request id.
type outboxEventFor struct {
	action    string
	requestID string
}

func (m outboxEventFor) Matches(x any) bool {
	event, ok := x.(kafka.OutboxEvent)
	if !ok || event.Topic != events.AttendanceEntryTopic || event.RequestID != m.requestID {
		return false
	}
	var payload events.AttendanceEntryChangedEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return false
	}
	return payload.Action == m.action && payload.RequestID == m.requestID
}

func (m outboxEventFor) String() string {
	return "outbox event " + m.action + " with request id " + m.requestID
}

func TestAttendanceService_ClockIn_Transaction(t *testing.T) {
	t.Run("entry revision and outbox commit together", func(t *testing.T) {
		d := setupTxTest(t)
		rid := "req-clock-in"
		ctx := contextutil.WithRequestID(context.Background(), rid)

		expectTx(t, d.sqlMock, true)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindOpenByEmployee(ctx, d.companyID, d.employee).Return(nil, gorm.ErrRecordNotFound)
		d.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		d.repo.EXPECT().CreateRevision(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, rev *attendance.EntryRevision) error {
				assert.Equal(t, attendance.ActionClockIn, rev.Action)
				assert.Equal(t, d.employee, rev.ActorID.String())
				assert.Nil(t, rev.Before)
				return nil
			})
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(ctx, outboxEventFor{action: attendance.ActionClockIn, requestID: rid}).Return(nil)

		_, err := d.service.ClockIn(ctx, d.companyID, d.employee, attendance.ClockInRequest{})

		assert.NoError(t, err)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		d := setupTxTest(t)
		ctx := context.Background()

		expectTx(t, d.sqlMock, false)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindOpenByEmployee(ctx, d.companyID, d.employee).Return(nil, gorm.ErrRecordNotFound)
		d.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		d.repo.EXPECT().CreateRevision(ctx, gomock.Any()).Return(nil)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("outbox down"))

		_, err := d.service.ClockIn(ctx, d.companyID, d.employee, attendance.ClockInRequest{})

		assert.EqualError(t, err, "outbox down")
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to already clocked in", func(t *testing.T) {
		d := setupTxTest(t)
		ctx := context.Background()

		expectTx(t, d.sqlMock, false)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindOpenByEmployee(ctx, d.companyID, d.employee).Return(nil, gorm.ErrRecordNotFound)
		d.repo.EXPECT().Create(ctx, gomock.Any()).Return(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "uq_attendance_open_session",
		})

		_, err := d.service.ClockIn(ctx, d.companyID, d.employee, attendance.ClockInRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("lookup failure", func(t *testing.T) {
		d := setupTxTest(t)
		ctx := context.Background()

		expectTx(t, d.sqlMock, false)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
		d.repo.EXPECT().FindOpenByEmployee(ctx, d.companyID, d.employee).Return(nil, sql.ErrConnDone)

		_, err := d.service.ClockIn(ctx, d.companyID, d.employee, attendance.ClockInRequest{})

		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestAttendanceService_ClockOut_LosesToSweep(t *testing.T) {
	d := setupTxTest(t)
	ctx := context.Background()
	open := &attendance.Entry{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(d.companyID),
		EmployeeID: uuid.MustParse(d.employee),
		ClockIn:    d.now.Add(-3 * time.Hour),
		Status:     attendance.StatusInProgress,
	}

	expectTx(t, d.sqlMock, false)
	d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
	d.repo.EXPECT().FindOpenByEmployee(ctx, d.companyID, d.employee).Return(open, nil)
	d.repo.EXPECT().CloseOpen(ctx, gomock.Any()).Return(false, nil)

	_, err := d.service.ClockOut(ctx, d.companyID, d.employee, attendance.ClockOutRequest{WorkSummary: "closing the sprint"})

	assert.ErrorIs(t, err, attendanceerrors.ErrNoOpenSession)
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_ClockOut_SummaryCheckedFirst(t *testing.T) {
	d := setupTxTest(t)

	_, err := d.service.ClockOut(context.Background(), d.companyID, d.employee, attendance.ClockOutRequest{WorkSummary: "done"})

	assert.ErrorIs(t, err, attendanceerrors.ErrSummaryTooShort)
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}

func TestAttendanceService_SweepExpired_Transaction(t *testing.T) {
	t.Run("skips entries closed in the meantime", func(t *testing.T) {
		d := setupTxTest(t)
		ctx := context.Background()
		closedByClockOut := attendance.Entry{ID: uuid.New(), ClockIn: d.now.Add(-5 * time.Hour), Status: attendance.StatusInProgress}
		stale := attendance.Entry{ID: uuid.New(), ClockIn: d.now.Add(-6 * time.Hour), Status: attendance.StatusInProgress}

		d.repo.EXPECT().FindOverdue(ctx, d.now.Add(-attendance.AutoExpireAfter), gomock.Any()).
			Return([]attendance.Entry{stale, closedByClockOut}, nil)

		expectTx(t, d.sqlMock, true)
		d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo).Times(2)
		d.repo.EXPECT().CloseOpen(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, e *attendance.Entry) (bool, error) {
				assert.Equal(t, stale.ClockIn.Add(attendance.AutoExpireAfter), *e.ClockOut)
				assert.Equal(t, attendance.StatusAutoExpired, e.Status)
				return true, nil
			})
		d.repo.EXPECT().CreateRevision(ctx, gomock.Any()).Return(nil)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(ctx, outboxEventFor{action: attendance.ActionAutoExpire}).Return(nil)

		expectTx(t, d.sqlMock, false)
		d.repo.EXPECT().CloseOpen(ctx, gomock.Any()).Return(false, nil)

		expired, err := d.service.SweepExpired(ctx, d.now)

		assert.NoError(t, err)
		assert.Len(t, expired, 1)
		assert.Equal(t, stale.ID.String(), expired[0].ID)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("lookup failure", func(t *testing.T) {
		d := setupTxTest(t)
		ctx := context.Background()

		d.repo.EXPECT().FindOverdue(ctx, gomock.Any(), gomock.Any()).Return(nil, sql.ErrConnDone)

		expired, err := d.service.SweepExpired(ctx, d.now)

		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Empty(t, expired)
	})
}

func TestAttendanceService_EditEntry_RollsBackOnRevisionFailure(t *testing.T) {
	d := setupTxTest(t)
	ctx := context.Background()
	out := d.now.Add(-time.Hour)
	entry := &attendance.Entry{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(d.companyID),
		EmployeeID: uuid.MustParse(d.employee),
		ClockIn:    d.now.Add(-3 * time.Hour),
		ClockOut:   &out,
		Status:     attendance.StatusCompleted,
	}

	expectTx(t, d.sqlMock, false)
	d.repo.EXPECT().WithTx(gomock.Any()).Return(d.repo)
	d.repo.EXPECT().FindByIDForUpdate(ctx, d.companyID, entry.ID.String()).Return(entry, nil)
	d.repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	d.repo.EXPECT().CreateRevision(ctx, gomock.Any()).Return(errors.New("disk full"))

	_, err := d.service.EditEntry(ctx, d.companyID, uuid.New().String(), entry.ID.String(), attendance.EditEntryRequest{
		ClockIn:    d.now.Add(-4 * time.Hour),
		ClockOut:   d.now.Add(-2 * time.Hour),
		EditReason: "badge glitch",
	})

	assert.EqualError(t, err, "disk full")
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}
