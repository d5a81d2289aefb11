package attendance

import (
	"context"
	"database/sql"
	"time"

	"go-attendance/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryQuery is the repository form of a log query. Cutoff is the
// clock_in instant before which an open entry is already expired.
type EntryQuery struct {
	Date       *time.Time
	Status     string
	EmployeeID string
	Cutoff     time.Time
	Offset     int
	Limit      int
}

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Entry) error
	FindByID(ctx context.Context, companyID, id string) (*Entry, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*Entry, error)
	FindOpenByEmployee(ctx context.Context, companyID, employeeID string) (*Entry, error)
	FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) ([]Entry, error)
	FindOverdue(ctx context.Context, cutoff time.Time, limit int) ([]Entry, error)
	CloseOpen(ctx context.Context, e *Entry) (bool, error)
	Update(ctx context.Context, e *Entry) error
	Query(ctx context.Context, companyID string, q EntryQuery) ([]Entry, int64, error)
	CreateRevision(ctx context.Context, rev *EntryRevision) error
	FindRevisions(ctx context.Context, companyID, entryID string) ([]EntryRevision, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn returns a session bound to the open transaction, if any.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	return r.conn(ctx).Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Entry, error) {
	var e Entry
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*Entry, error) {
	var e Entry
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindOpenByEmployee(ctx context.Context, companyID, employeeID string) (*Entry, error) {
	var e Entry
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusInProgress).
		Order("clock_in DESC").
		First(&e).Error
	return &e, err
}

func (r *repository) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) ([]Entry, error) {
	var rows []Entry
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("attendance_date = ?", date.Format("2006-01-02")).
		Order("clock_in DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindOverdue(ctx context.Context, cutoff time.Time, limit int) ([]Entry, error) {
	var rows []Entry
	err := r.conn(ctx).
		Where("status = ?", StatusInProgress).
		Where("clock_in < ?", cutoff).
		Order("clock_in ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CloseOpen writes the closing fields only if the row is still open.
// false means another writer closed it first.
func (r *repository) CloseOpen(ctx context.Context, e *Entry) (bool, error) {
	res := r.conn(ctx).
		Model(&Entry{}).
		Where("id = ?", e.ID).
		Where("status = ?", StatusInProgress).
		Updates(map[string]any{
			"clock_out":    e.ClockOut,
			"status":       e.Status,
			"work_summary": e.WorkSummary,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Update(ctx context.Context, e *Entry) error {
	return r.conn(ctx).Save(e).Error
}

func (r *repository) Query(ctx context.Context, companyID string, q EntryQuery) ([]Entry, int64, error) {
	base := r.conn(ctx).
		Model(&Entry{}).
		Scopes(tenant.Scope(companyID))

	if q.Date != nil {
		base = base.Where("attendance_date = ?", q.Date.Format("2006-01-02"))
	}
	if q.EmployeeID != "" {
		base = base.Where("employee_id = ?", q.EmployeeID)
	}

	switch q.Status {
	case "":
	case StatusFlagged:
		base = base.Where("is_flagged = ?", true)
	case StatusInProgress:
		base = base.Where("status = ? AND clock_in >= ?", StatusInProgress, q.Cutoff)
	case StatusAutoExpired:
		base = base.Where("(status = ? OR (status = ? AND clock_in < ?))", StatusAutoExpired, StatusInProgress, q.Cutoff)
	default:
		base = base.Where("status = ?", q.Status)
	}
	base = base.Session(&gorm.Session{})

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []Entry
	err := base.
		Order("clock_in DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	return rows, count, err
}

func (r *repository) CreateRevision(ctx context.Context, rev *EntryRevision) error {
	return r.conn(ctx).Create(rev).Error
}

func (r *repository) FindRevisions(ctx context.Context, companyID, entryID string) ([]EntryRevision, error) {
	var rows []EntryRevision
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("entry_id = ?", entryID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
