package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"releaseguard.app/guard/common/logger"
)

// WindowPurger is the slice of service.BlockScheduleService the sweeper needs.
type WindowPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type SweeperConfig struct {
	Interval time.Duration
	// Retention keeps expired windows around for this long after they end.
	Retention time.Duration
}

// Sweeper periodically deletes block windows that ended before now minus
// the retention period. Expired windows never block a merge, so sweeping
// only keeps the schedule listing short.
type Sweeper struct {
	purger WindowPurger
	cfg    SweeperConfig
	now    func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewSweeper(purger WindowPurger, cfg SweeperConfig) (*Sweeper, error) {
	return NewSweeperWithClock(purger, cfg, time.Now)
}

func NewSweeperWithClock(purger WindowPurger, cfg SweeperConfig, now func() time.Time) (*Sweeper, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Retention < 0 {
		return nil, fmt.Errorf("sweep retention must not be negative, got %s", cfg.Retention)
	}
	return &Sweeper{
		purger:    purger,
		cfg:       cfg,
		now:       now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Run sweeps once immediately and then on every tick. Blocks until Stop() is
// called or ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "guard.worker.sweeper",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "sweeper started",
		"interval", s.cfg.Interval,
		"retention", s.cfg.Retention)

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the sweeper to stop and waits for the loop to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// SweepOnce performs one sweep cycle and returns the number of removed windows.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.Retention)
	n, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging windows ended before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.SweepOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "sweep cycle error", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired block windows purged",
			"count", n,
			"duration_ms", time.Since(start).Milliseconds())
	}
}
