package attendance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSweepInterval = time.Minute

// ExpirySweeper is the part of Service the background sweeper drives.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context, now time.Time) ([]EntryResponse, error)
}

// Sweeper persists the auto-expiry transition on a fixed interval. Reads
// already project the same state, so the interval only bounds how long
// storage lags behind.
type Sweeper struct {
	target   ExpirySweeper
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewSweeper(target ExpirySweeper, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.Named("attendance.sweeper"),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval until ctx is
// cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)

	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
}

// Stop waits for the loop to exit. Calling it more than once is fine.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.stopOnce.Do(s.cancel)
	<-s.done
}

// RunOnce performs a single sweep and returns how many entries it closed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	expired, err := s.target.SweepExpired(ctx, s.now())
	for _, e := range expired {
		s.logger.Info("session auto-expired",
			zap.String("entry_id", e.ID),
			zap.String("employee_id", e.EmployeeID),
			zap.String("clock_in", e.ClockIn),
		)
	}
	if err != nil {
		s.logger.Error("sweep failed", zap.Int("expired", len(expired)), zap.Error(err))
	}
	return len(expired), err
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
