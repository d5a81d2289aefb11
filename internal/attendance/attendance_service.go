package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	attendanceerrors "go-attendance/internal/attendance/errors"
	"go-attendance/internal/events"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/shared/contextutil"
	"go-attendance/internal/shared/lock"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	sweepBatchSize = 200
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (EntryResponse, error)
	ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (EntryResponse, error)
	SweepExpired(ctx context.Context, now time.Time) ([]EntryResponse, error)
	GetStatus(ctx context.Context, companyID, employeeID string) (AttendanceStatus, error)
	GetToday(ctx context.Context, companyID, employeeID string) ([]EntryResponse, error)
	EditEntry(ctx context.Context, companyID, actorID, id string, req EditEntryRequest) (EntryResponse, error)
	SetFlag(ctx context.Context, companyID, actorID, id string, req SetFlagRequest) (EntryResponse, error)
	CreateManualEntry(ctx context.Context, companyID, actorID string, req ManualEntryRequest) (EntryResponse, error)
	QueryEntries(ctx context.Context, companyID string, filter QueryFilter) (QueryResult, error)
	GetHistory(ctx context.Context, companyID, id string) ([]RevisionResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	locker lock.Locker
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
	today  singleflight.Group
}

type Option func(*service)

func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func WithLocker(l lock.Locker) Option {
	return func(s *service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("attendance.service")
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocation sets the timezone used to decide an entry's calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(db *sql.DB, repo Repository, opts ...Option) Service {
	s := &service{
		db:     db,
		repo:   repo,
		locker: lock.NewLocalLocker(),
		logger: zap.L().Named("attendance.service"),
		now:    func() time.Time { return time.Now().UTC() },
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (EntryResponse, error) {
	s.log(ctx).Debug("clock in requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
	)

	companyUUID, employeeUUID, err := parseIdentity(companyID, employeeID)
	if err != nil {
		return EntryResponse{}, err
	}

	release, err := s.lockEmployee(ctx, companyID, employeeID)
	if err != nil {
		return EntryResponse{}, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("clock in begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now()

	open, err := qtx.FindOpenByEmployee(ctx, companyID, employeeID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		s.log(ctx).Error("clock in open session lookup failed", zap.Error(err))
		return EntryResponse{}, err
	case isOverdue(*open, now):
		// a forgotten session must not block the next clock-in
		if _, err := s.expireEntry(ctx, tx, qtx, open); err != nil {
			s.log(ctx).Error("clock in expire stale session failed",
				zap.String("entry_id", open.ID.String()),
				zap.Error(err),
			)
			return EntryResponse{}, err
		}
	default:
		s.log(ctx).Warn("clock in rejected, session already open",
			zap.String("employee_id", employeeID),
			zap.String("entry_id", open.ID.String()),
		)
		return EntryResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	entry := &Entry{
		ID:             uuid.New(),
		CompanyID:      companyUUID,
		EmployeeID:     employeeUUID,
		AttendanceDate: calendarDay(now, s.loc),
		ClockIn:        now,
		Status:         StatusInProgress,
		DeviceInfo:     req.DeviceInfo,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		CreatedBy:      &employeeUUID,
	}
	if err := qtx.Create(ctx, entry); err != nil {
		s.log(ctx).Error("clock in persist failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}

	if err := s.record(ctx, tx, qtx, change{
		action:  ActionClockIn,
		actorID: employeeID,
		after:   *entry,
	}); err != nil {
		return EntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("clock in commit failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}
	s.log(ctx).Info("clock in success",
		zap.String("entry_id", entry.ID.String()),
		zap.String("employee_id", employeeID),
	)

	return mapToResponse(*entry), nil
}

func (s *service) ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (EntryResponse, error) {
	if _, _, err := parseIdentity(companyID, employeeID); err != nil {
		return EntryResponse{}, err
	}
	if trimmedLength(req.WorkSummary) < MinWorkSummaryLength {
		return EntryResponse{}, attendanceerrors.ErrSummaryTooShort
	}

	release, err := s.lockEmployee(ctx, companyID, employeeID)
	if err != nil {
		return EntryResponse{}, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("clock out begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now()

	open, err := qtx.FindOpenByEmployee(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EntryResponse{}, attendanceerrors.ErrNoOpenSession
		}
		s.log(ctx).Error("clock out open session lookup failed", zap.Error(err))
		return EntryResponse{}, err
	}
	if isOverdue(*open, now) {
		s.log(ctx).Info("clock out after auto-expiry cap",
			zap.String("entry_id", open.ID.String()),
			zap.Time("clock_in", open.ClockIn),
		)
		return EntryResponse{}, attendanceerrors.ErrNoOpenSession
	}
	if !now.After(open.ClockIn) {
		return EntryResponse{}, attendanceerrors.ErrInvalidRange
	}

	before := *open
	open.ClockOut = &now
	open.Status = StatusCompleted
	open.WorkSummary = strPtr(strings.TrimSpace(req.WorkSummary))

	closed, err := qtx.CloseOpen(ctx, open)
	if err != nil {
		s.log(ctx).Error("clock out persist failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}
	if !closed {
		// the sweep got there first
		return EntryResponse{}, attendanceerrors.ErrNoOpenSession
	}

	if err := s.record(ctx, tx, qtx, change{
		action:  ActionClockOut,
		actorID: employeeID,
		before:  &before,
		after:   *open,
	}); err != nil {
		return EntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("clock out commit failed", zap.Error(err))
		return EntryResponse{}, err
	}
	s.log(ctx).Info("clock out success",
		zap.String("entry_id", open.ID.String()),
		zap.Intp("duration_minutes", open.DurationMinutes()),
	)

	return mapToResponse(*open), nil
}

// SweepExpired closes every session older than the cap as of now.
// Entries closed concurrently by a clock-out are skipped.
func (s *service) SweepExpired(ctx context.Context, now time.Time) ([]EntryResponse, error) {
	cutoff := now.Add(-AutoExpireAfter)
	expired := make([]EntryResponse, 0)
	var errs []error

	for {
		rows, err := s.repo.FindOverdue(ctx, cutoff, sweepBatchSize)
		if err != nil {
			s.log(ctx).Error("sweep overdue lookup failed", zap.Error(err))
			return expired, err
		}

		progress := 0
		for i := range rows {
			closed, err := s.expireOne(ctx, &rows[i])
			if err != nil {
				s.log(ctx).Error("sweep expire entry failed",
					zap.String("entry_id", rows[i].ID.String()),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}
			progress++
			if closed {
				expired = append(expired, mapToResponse(rows[i]))
			}
		}

		if len(rows) < sweepBatchSize || progress == 0 {
			break
		}
	}

	if len(expired) > 0 {
		s.log(ctx).Info("sweep expired sessions", zap.Int("count", len(expired)))
	}
	return expired, errors.Join(errs...)
}

func (s *service) expireOne(ctx context.Context, e *Entry) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	closed, err := s.expireEntry(ctx, tx, s.repo.WithTx(tx), e)
	if err != nil || !closed {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// expireEntry applies the auto-expiry transition inside tx. It reports
// false when the entry was no longer open.
func (s *service) expireEntry(ctx context.Context, tx *sql.Tx, qtx Repository, e *Entry) (bool, error) {
	before := *e
	expire(e)

	closed, err := qtx.CloseOpen(ctx, e)
	if err != nil {
		return false, err
	}
	if !closed {
		return false, nil
	}

	if err := s.record(ctx, tx, qtx, change{
		action: ActionAutoExpire,
		before: &before,
		after:  *e,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) GetStatus(ctx context.Context, companyID, employeeID string) (AttendanceStatus, error) {
	if _, _, err := parseIdentity(companyID, employeeID); err != nil {
		return AttendanceStatus{}, err
	}
	now := s.now()

	var open *Entry
	found, err := s.repo.FindOpenByEmployee(ctx, companyID, employeeID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		s.log(ctx).Error("get status open session lookup failed", zap.Error(err))
		return AttendanceStatus{}, err
	default:
		open = found
	}

	today, err := s.repo.FindByEmployeeAndDate(ctx, companyID, employeeID, calendarDay(now, s.loc))
	if err != nil {
		s.log(ctx).Error("get status today lookup failed", zap.Error(err))
		return AttendanceStatus{}, err
	}

	return ProjectStatus(open, today, now), nil
}

func (s *service) GetToday(ctx context.Context, companyID, employeeID string) ([]EntryResponse, error) {
	if _, _, err := parseIdentity(companyID, employeeID); err != nil {
		return nil, err
	}
	now := s.now()
	day := calendarDay(now, s.loc)

	key := fmt.Sprintf("%s:%s:%s", companyID, employeeID, day.Format(dateLayout))
	v, err, shared := s.today.Do(key, func() (any, error) {
		// coalesced callers must not fail because the first one went away
		return s.repo.FindByEmployeeAndDate(context.WithoutCancel(ctx), companyID, employeeID, day)
	})
	if err != nil {
		s.log(ctx).Error("get today lookup failed", zap.Error(err))
		return nil, err
	}
	if shared {
		s.log(ctx).Debug("get today coalesced", zap.String("key", key))
	}

	return mapToListResponse(v.([]Entry), now), nil
}

func (s *service) EditEntry(ctx context.Context, companyID, actorID, id string, req EditEntryRequest) (EntryResponse, error) {
	s.log(ctx).Debug("edit entry requested",
		zap.String("entry_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return EntryResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	if !req.ClockOut.After(req.ClockIn) {
		return EntryResponse{}, attendanceerrors.ErrInvalidRange
	}
	if trimmedLength(req.EditReason) < MinReasonLength {
		return EntryResponse{}, attendanceerrors.ErrEditReasonTooShort
	}
	if _, err := uuid.Parse(id); err != nil {
		return EntryResponse{}, attendanceerrors.ErrEntryNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("edit entry begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	entry, err := s.loadTerminal(ctx, tx, qtx, companyID, id)
	if err != nil {
		return EntryResponse{}, err
	}
	if !isAllowedStatusTransition(entry.Status, StatusEdited) {
		return EntryResponse{}, attendanceerrors.ErrEntryStillOpen
	}

	before := *entry
	clockIn := req.ClockIn.UTC()
	clockOut := req.ClockOut.UTC()
	entry.ClockIn = clockIn
	entry.ClockOut = &clockOut
	entry.AttendanceDate = calendarDay(clockIn, s.loc)
	entry.Status = StatusEdited
	entry.EditReason = strPtr(strings.TrimSpace(req.EditReason))
	entry.EditedBy = uuidPtr(actorID)

	if err := qtx.Update(ctx, entry); err != nil {
		s.log(ctx).Error("edit entry persist failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}

	if err := s.record(ctx, tx, qtx, change{
		action:  ActionEdit,
		actorID: actorID,
		reason:  entry.EditReason,
		before:  &before,
		after:   *entry,
	}); err != nil {
		return EntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("edit entry commit failed", zap.Error(err))
		return EntryResponse{}, err
	}
	s.log(ctx).Info("edit entry success",
		zap.String("entry_id", id),
		zap.String("previous_status", before.Status),
	)

	return mapToResponse(*entry), nil
}

func (s *service) SetFlag(ctx context.Context, companyID, actorID, id string, req SetFlagRequest) (EntryResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return EntryResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	if req.IsFlagged == nil {
		return EntryResponse{}, attendanceerrors.ErrFlagStateRequired
	}
	flagging := *req.IsFlagged

	var reason string
	if flagging {
		if req.FlagReason != nil {
			reason = strings.TrimSpace(*req.FlagReason)
		}
		if trimmedLength(reason) < MinReasonLength {
			return EntryResponse{}, attendanceerrors.ErrFlagReasonTooShort
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		return EntryResponse{}, attendanceerrors.ErrEntryNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("set flag begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	entry, err := s.loadTerminal(ctx, tx, qtx, companyID, id)
	if err != nil {
		return EntryResponse{}, err
	}

	before := *entry
	action := ActionUnflag
	entry.IsFlagged = flagging
	entry.FlagReason = nil
	if flagging {
		action = ActionFlag
		entry.FlagReason = strPtr(reason)
	}

	if err := qtx.Update(ctx, entry); err != nil {
		s.log(ctx).Error("set flag persist failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}

	if err := s.record(ctx, tx, qtx, change{
		action:  action,
		actorID: actorID,
		reason:  entry.FlagReason,
		before:  &before,
		after:   *entry,
	}); err != nil {
		return EntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("set flag commit failed", zap.Error(err))
		return EntryResponse{}, err
	}
	s.log(ctx).Info("set flag success",
		zap.String("entry_id", id),
		zap.Bool("is_flagged", flagging),
	)

	return mapToResponse(*entry), nil
}

func (s *service) CreateManualEntry(ctx context.Context, companyID, actorID string, req ManualEntryRequest) (EntryResponse, error) {
	s.log(ctx).Debug("create manual entry requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return EntryResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		return EntryResponse{}, attendanceerrors.ErrEmployeeRequired
	}
	employeeUUID, err := uuid.Parse(strings.TrimSpace(req.EmployeeID))
	if err != nil {
		return EntryResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	if !req.ClockOut.After(req.ClockIn) {
		return EntryResponse{}, attendanceerrors.ErrInvalidRange
	}
	if trimmedLength(req.ManualEntryReason) < MinReasonLength {
		return EntryResponse{}, attendanceerrors.ErrManualReasonTooShort
	}

	clockIn := req.ClockIn.UTC()
	clockOut := req.ClockOut.UTC()
	entry := &Entry{
		ID:                uuid.New(),
		CompanyID:         companyUUID,
		EmployeeID:        employeeUUID,
		AttendanceDate:    calendarDay(clockIn, s.loc),
		ClockIn:           clockIn,
		ClockOut:          &clockOut,
		Status:            StatusManual,
		IsManualEntry:     true,
		ManualEntryReason: strPtr(strings.TrimSpace(req.ManualEntryReason)),
		CreatedBy:         uuidPtr(actorID),
	}
	if req.WorkSummary != nil && strings.TrimSpace(*req.WorkSummary) != "" {
		entry.WorkSummary = strPtr(strings.TrimSpace(*req.WorkSummary))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("create manual entry begin tx failed", zap.Error(err))
		return EntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.Create(ctx, entry); err != nil {
		s.log(ctx).Error("create manual entry persist failed", zap.Error(err))
		return EntryResponse{}, mapRepositoryError(err)
	}

	if err := s.record(ctx, tx, qtx, change{
		action:  ActionManualCreate,
		actorID: actorID,
		reason:  entry.ManualEntryReason,
		after:   *entry,
	}); err != nil {
		return EntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("create manual entry commit failed", zap.Error(err))
		return EntryResponse{}, err
	}
	s.log(ctx).Info("create manual entry success",
		zap.String("entry_id", entry.ID.String()),
		zap.String("employee_id", employeeUUID.String()),
	)

	return mapToResponse(*entry), nil
}

func (s *service) QueryEntries(ctx context.Context, companyID string, filter QueryFilter) (QueryResult, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return QueryResult{}, attendanceerrors.ErrInvalidCompanyID
	}

	q, page, pageSize, err := buildEntryQuery(filter)
	if err != nil {
		return QueryResult{}, err
	}
	now := s.now()
	q.Cutoff = now.Add(-AutoExpireAfter)

	rows, count, err := s.repo.Query(ctx, companyID, q)
	if err != nil {
		s.log(ctx).Error("query entries failed", zap.Error(err))
		return QueryResult{}, err
	}

	return QueryResult{
		Results:  mapToListResponse(rows, now),
		Count:    count,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *service) GetHistory(ctx context.Context, companyID, id string) ([]RevisionResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, attendanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, attendanceerrors.ErrEntryNotFound
	}

	if _, err := s.repo.FindByID(ctx, companyID, id); err != nil {
		return nil, mapRepositoryError(err)
	}
	revs, err := s.repo.FindRevisions(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	res := make([]RevisionResponse, len(revs))
	for i, r := range revs {
		res[i] = mapRevisionResponse(r)
	}
	return res, nil
}

// loadTerminal locks the entry and makes sure it is closed. An overdue
// open entry is expired first so the correction applies to the stored
// AUTO_EXPIRED state.
func (s *service) loadTerminal(ctx context.Context, tx *sql.Tx, qtx Repository, companyID, id string) (*Entry, error) {
	entry, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx).Error("load entry failed", zap.String("entry_id", id), zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	if !entry.IsOpen() {
		return entry, nil
	}
	if !isOverdue(*entry, s.now()) {
		return nil, attendanceerrors.ErrEntryStillOpen
	}
	if _, err := s.expireEntry(ctx, tx, qtx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) lockEmployee(ctx context.Context, companyID, employeeID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, lockKey(companyID, employeeID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.log(ctx).Warn("employee lock busy", zap.String("employee_id", employeeID))
			return nil, attendanceerrors.ErrClockBusy
		}
		s.log(ctx).Error("employee lock failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return release, nil
}

// log prefers the request-scoped logger set by the HTTP middleware.
func (s *service) log(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func lockKey(companyID, employeeID string) string {
	return "attendance:lock:" + companyID + ":" + employeeID
}

type change struct {
	action  string
	actorID string
	reason  *string
	before  *Entry
	after   Entry
}

// record appends the revision and, when an outbox is configured, the
// change event. Both ride on the caller's transaction.
func (s *service) record(ctx context.Context, tx *sql.Tx, qtx Repository, c change) error {
	before, err := snapshot(c.before)
	if err != nil {
		return err
	}
	after, err := snapshot(&c.after)
	if err != nil {
		return err
	}

	rev := &EntryRevision{
		ID:         uuid.New(),
		EntryID:    c.after.ID,
		CompanyID:  c.after.CompanyID,
		EmployeeID: c.after.EmployeeID,
		Action:     c.action,
		ActorID:    uuidPtr(c.actorID),
		Reason:     c.reason,
		Before:     before,
		After:      after,
		CreatedAt:  s.now(),
	}
	if err := qtx.CreateRevision(ctx, rev); err != nil {
		s.log(ctx).Error("revision persist failed",
			zap.String("entry_id", c.after.ID.String()),
			zap.String("action", c.action),
			zap.Error(err),
		)
		return err
	}

	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.AttendanceEntryChangedEvent{
		EventType:  events.AttendanceEntryChangedType,
		RequestID:  rid,
		EntryID:    c.after.ID.String(),
		CompanyID:  c.after.CompanyID.String(),
		EmployeeID: c.after.EmployeeID.String(),
		Action:     c.action,
		Status:     c.after.Status,
		IsFlagged:  c.after.IsFlagged,
		ActorID:    c.actorID,
		OccurredAt: rev.CreatedAt,
	}
	if c.reason != nil {
		event.Reason = *c.reason
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log(ctx).Error("marshal event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "attendance_entry",
		AggregateID:   c.after.ID.String(),
		EventType:     event.EventType,
		Topic:         events.AttendanceEntryTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.log(ctx).Error("outbox persist failed",
			zap.String("entry_id", c.after.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func buildEntryQuery(f QueryFilter) (EntryQuery, int, int, error) {
	var q EntryQuery

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	if d := strings.TrimSpace(f.Date); d != "" {
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			return q, 0, 0, attendanceerrors.ErrInvalidDateFormat
		}
		q.Date = &day
	}

	status := strings.ToUpper(strings.TrimSpace(f.Status))
	if !isValidStatusFilter(status) {
		return q, 0, 0, attendanceerrors.ErrInvalidStatusFilter
	}
	q.Status = status

	if emp := strings.TrimSpace(f.EmployeeID); emp != "" {
		if _, err := uuid.Parse(emp); err != nil {
			return q, 0, 0, attendanceerrors.ErrInvalidEmployeeID
		}
		q.EmployeeID = emp
	}

	q.Offset = (page - 1) * pageSize
	q.Limit = pageSize
	return q, page, pageSize, nil
}

func parseIdentity(companyID, employeeID string) (uuid.UUID, uuid.UUID, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, attendanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, attendanceerrors.ErrInvalidEmployeeID
	}
	return companyUUID, employeeUUID, nil
}

func uuidPtr(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
