package app

import (
	"context"
	"time"

	"go-attendance/internal/attendance"
	"go-attendance/internal/bootstrap"
	"go-attendance/internal/config"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/messaging/kafka/producer"
	"go-attendance/internal/shared/connection"

	"go.uber.org/zap"
)

type WorkerOptions struct {
	Once           bool
	SweepInterval  time.Duration
	OutboxInterval time.Duration
}

// RunWorker persists auto-expiry and relays the outbox to Kafka. Without
// KAFKA_BROKER only the sweeper runs and events stay pending.
func RunWorker(cfg config.Config, opts WorkerOptions) error {
	logger := zap.L().Named("app.worker")

	inf, err := connect(cfg)
	if err != nil {
		return err
	}
	defer inf.Close()

	if err := migrate(inf.gormDB); err != nil {
		return err
	}

	svc := newAttendanceService(inf.sqlDB, inf.gormDB, inf.redis, cfg, zap.L())
	sweeper := attendance.NewSweeper(svc, opts.SweepInterval, zap.L())
	outboxRepo := kafka.NewOutboxRepository(inf.sqlDB)

	var writer producer.MessageWriter
	if cfg.KafkaBroker == "" {
		logger.Warn("KAFKA_BROKER not set, outbox relay disabled")
	} else {
		kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
		if err != nil {
			return err
		}
		defer kafkaWriter.Close()
		writer = kafkaWriter
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.Once {
		expired, err := sweeper.RunOnce(ctx)
		if err != nil {
			return err
		}
		sent := 0
		if writer != nil {
			if sent, err = producer.ProcessPendingEvents(ctx, outboxRepo, writer, logger); err != nil {
				return err
			}
		}
		if cfg.OutboxRetention > 0 {
			if _, err := producer.PurgeSentEvents(ctx, outboxRepo, cfg.OutboxRetention, logger); err != nil {
				return err
			}
		}
		logger.Info("worker single pass done", zap.Int("expired", expired), zap.Int("sent", sent))
		return nil
	}

	sweeper.Start(ctx)
	if writer != nil {
		go producer.ProcessOutboxEvents(ctx, outboxRepo, writer, zap.L(), opts.OutboxInterval, cfg.OutboxRetention)
	}

	sig := bootstrap.WaitForSignal()
	logger.Info("worker shutting down", zap.String("signal", sig))
	cancel()
	sweeper.Stop()

	return nil
}
