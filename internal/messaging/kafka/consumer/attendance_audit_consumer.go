package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-attendance/internal/bootstrap"
	"go-attendance/internal/events"
	"go-attendance/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// pause after a failed fetch so a broker outage does not spin the loop
const fetchRetryDelay = 500 * time.Millisecond

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeAttendanceAudit copies every attendance entry change into the
// audit log. Undecodable messages are committed and dropped.
func ConsumeAttendanceAudit(
	ctx context.Context,
	reader MessageReader,
	auditLogger bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.attendance_audit")
	log.Info("attendance audit consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("attendance audit consumer stopped")
				return
			}
			log.Error("fetch attendance message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				log.Info("attendance audit consumer stopped")
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		var event events.AttendanceEntryChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode attendance_entry_changed event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := ctx
		if event.RequestID != "" {
			msgCtx = contextutil.WithRequestID(ctx, event.RequestID)
		}
		auditLogger.Log(msgCtx, auditEntry(event))

		if event.IsFlagged {
			log.Warn("attendance entry flagged for review",
				zap.String("entry_id", event.EntryID),
				zap.String("employee_id", event.EmployeeID),
				zap.String("company_id", event.CompanyID),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit attendance message failed", zap.Error(err))
			continue
		}
	}
}

func auditEntry(event events.AttendanceEntryChangedEvent) bootstrap.AuditLog {
	meta := map[string]any{
		"entry_id":    event.EntryID,
		"company_id":  event.CompanyID,
		"employee_id": event.EmployeeID,
		"status":      event.Status,
		"is_flagged":  event.IsFlagged,
		"occurred_at": event.OccurredAt,
	}
	if event.ActorID != "" {
		meta["actor_id"] = event.ActorID
	}
	if event.Reason != "" {
		meta["reason"] = event.Reason
	}

	return bootstrap.AuditLog{
		Action:  "ATTENDANCE_" + event.Action,
		Message: "attendance entry " + event.EntryID + " is now " + event.Status,
		Meta:    meta,
	}
}
