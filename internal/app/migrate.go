package app

import (
	"go-attendance/internal/attendance"

	"gorm.io/gorm"
)

const outboxDDL = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	request_id TEXT,
	aggregate_type VARCHAR(64) NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type VARCHAR(64) NOT NULL,
	topic VARCHAR(128) NOT NULL,
	payload JSONB NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	next_retry_at TIMESTAMPTZ,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const outboxPendingIndexDDL = `
CREATE INDEX IF NOT EXISTS idx_outbox_events_pending
	ON outbox_events (status, created_at)
	WHERE status IN ('pending', 'failed')`

// At most one IN_PROGRESS entry per employee, even if two processes race
// past the lock.
const openSessionIndexDDL = `
CREATE UNIQUE INDEX IF NOT EXISTS uq_attendance_open_session
	ON attendance_entries (employee_id)
	WHERE status = 'IN_PROGRESS'`

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&attendance.Entry{}, &attendance.EntryRevision{}); err != nil {
		return err
	}
	for _, ddl := range []string{openSessionIndexDDL, outboxDDL, outboxPendingIndexDDL} {
		if err := db.Exec(ddl).Error; err != nil {
			return err
		}
	}
	return nil
}
