package main

import (
	"time"

	"go-attendance/internal/app"
	"go-attendance/internal/bootstrap"
	"go-attendance/internal/config"
	"go-attendance/internal/shared/apperror"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var CLI struct {
	Once           bool          `help:"Run one sweep and one outbox batch, then exit."`
	SweepInterval  time.Duration `help:"Auto-expiry sweep interval. Defaults to SWEEP_INTERVAL."`
	OutboxInterval time.Duration `help:"Outbox poll interval. Defaults to OUTBOX_POLL_INTERVAL."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("attendance-worker"),
		kong.Description("Persists attendance auto-expiry and relays the event outbox to Kafka."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	apperror.Init()

	opts := app.WorkerOptions{
		Once:           CLI.Once,
		SweepInterval:  cfg.SweepInterval,
		OutboxInterval: cfg.OutboxPollInterval,
	}
	if CLI.SweepInterval > 0 {
		opts.SweepInterval = CLI.SweepInterval
	}
	if CLI.OutboxInterval > 0 {
		opts.OutboxInterval = CLI.OutboxInterval
	}

	if err := app.RunWorker(cfg, opts); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
