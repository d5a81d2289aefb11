package attendance_test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"go-attendance/internal/attendance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// memRepository is an in-memory Repository. Transactions are not
// emulated; rollback behaviour is covered with gomock and strict sqlmock.
type memRepository struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]attendance.Entry
	revisions []attendance.EntryRevision
}

func newMemRepository() *memRepository {
	return &memRepository{entries: make(map[uuid.UUID]attendance.Entry)}
}

func (r *memRepository) put(e attendance.Entry) attendance.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries[e.ID] = e
	return e
}

func (r *memRepository) get(id string) attendance.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[uuid.MustParse(id)]
}

func (r *memRepository) countOpen(employeeID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && e.Status == attendance.StatusInProgress {
			n++
		}
	}
	return n
}

func (r *memRepository) actions(entryID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rev := range r.revisions {
		if rev.EntryID.String() == entryID {
			out = append(out, rev.Action)
		}
	}
	return out
}

func (r *memRepository) WithTx(*sql.Tx) attendance.Repository {
	return r
}

func (r *memRepository) Create(_ context.Context, e *attendance.Entry) error {
	r.put(*e)
	return nil
}

func (r *memRepository) FindByID(_ context.Context, companyID, id string) (*attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	e, ok := r.entries[parsed]
	if !ok || e.CompanyID.String() != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *memRepository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*attendance.Entry, error) {
	return r.FindByID(ctx, companyID, id)
}

func (r *memRepository) FindOpenByEmployee(_ context.Context, companyID, employeeID string) (*attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *attendance.Entry
	for _, e := range r.entries {
		if e.CompanyID.String() != companyID || e.EmployeeID.String() != employeeID || e.Status != attendance.StatusInProgress {
			continue
		}
		if found == nil || e.ClockIn.After(found.ClockIn) {
			c := e
			found = &c
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r *memRepository) FindByEmployeeAndDate(_ context.Context, companyID, employeeID string, date time.Time) ([]attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []attendance.Entry
	for _, e := range r.entries {
		if e.CompanyID.String() == companyID && e.EmployeeID.String() == employeeID && e.AttendanceDate.Equal(date) {
			rows = append(rows, e)
		}
	}
	sortNewestFirst(rows)
	return rows, nil
}

func (r *memRepository) FindOverdue(_ context.Context, cutoff time.Time, limit int) ([]attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []attendance.Entry
	for _, e := range r.entries {
		if e.Status == attendance.StatusInProgress && e.ClockIn.Before(cutoff) {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClockIn.Before(rows[j].ClockIn) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *memRepository) CloseOpen(_ context.Context, e *attendance.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[e.ID]
	if !ok || stored.Status != attendance.StatusInProgress {
		return false, nil
	}
	stored.ClockOut = e.ClockOut
	stored.Status = e.Status
	stored.WorkSummary = e.WorkSummary
	r.entries[e.ID] = stored
	return true, nil
}

func (r *memRepository) Update(_ context.Context, e *attendance.Entry) error {
	r.put(*e)
	return nil
}

func (r *memRepository) Query(_ context.Context, companyID string, q attendance.EntryQuery) ([]attendance.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []attendance.Entry
	for _, e := range r.entries {
		if e.CompanyID.String() != companyID {
			continue
		}
		if q.Date != nil && !e.AttendanceDate.Equal(*q.Date) {
			continue
		}
		if q.EmployeeID != "" && e.EmployeeID.String() != q.EmployeeID {
			continue
		}
		overdue := e.Status == attendance.StatusInProgress && e.ClockIn.Before(q.Cutoff)
		switch q.Status {
		case "":
		case attendance.StatusFlagged:
			if !e.IsFlagged {
				continue
			}
		case attendance.StatusInProgress:
			if e.Status != attendance.StatusInProgress || overdue {
				continue
			}
		case attendance.StatusAutoExpired:
			if e.Status != attendance.StatusAutoExpired && !overdue {
				continue
			}
		default:
			if e.Status != q.Status {
				continue
			}
		}
		rows = append(rows, e)
	}
	sortNewestFirst(rows)

	count := int64(len(rows))
	if q.Offset >= len(rows) {
		return []attendance.Entry{}, count, nil
	}
	rows = rows[q.Offset:]
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, count, nil
}

func (r *memRepository) CreateRevision(_ context.Context, rev *attendance.EntryRevision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revisions = append(r.revisions, *rev)
	return nil
}

func (r *memRepository) FindRevisions(_ context.Context, companyID, entryID string) ([]attendance.EntryRevision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.EntryRevision
	for _, rev := range r.revisions {
		if rev.CompanyID.String() == companyID && rev.EntryID.String() == entryID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func sortNewestFirst(rows []attendance.Entry) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClockIn.After(rows[j].ClockIn) })
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newLooseTxDB accepts any number of begin/commit pairs in any order.
func newLooseTxDB(t *testing.T) *sql.DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 64; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
