package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultWarmPeriods are populated at startup.
var DefaultWarmPeriods = []string{domain.PeriodWeek, domain.PeriodMonth}

// Refresher is the part of Service the scheduler drives.
type Refresher interface {
	Name() string
	Keys() []string
	Refresh(ctx context.Context, period string) []domain.Item
}

// Scheduler warms the caches once at startup and then revalidates every
// cached key on a fixed interval. It never adds keys of its own.
type Scheduler struct {
	targets  []Refresher
	interval time.Duration
	warm     []string
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(interval time.Duration, warm []string, logger *slog.Logger, targets ...Refresher) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{targets: targets, interval: interval, warm: warm, logger: logger}
}

// Start launches the warm-up and refresh workers and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.WarmUp(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Stop cancels the workers and waits for in-flight cycles to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// WarmUp populates the warm periods for every target. Targets run
// concurrently; periods within a target run in order.
func (s *Scheduler) WarmUp(ctx context.Context) {
	var g errgroup.Group
	for _, t := range s.targets {
		t := t
		g.Go(func() error {
			s.logger.Info("Cache warm-up start", "provider", t.Name())
			for _, period := range s.warm {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				t.Refresh(ctx, period)
			}
			s.logger.Info("Cache warm-up done", "provider", t.Name())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Cache warm-up interrupted", "err", err)
	}
}

// RefreshAll re-runs the populate cycle for every key already cached.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	for _, t := range s.targets {
		for _, period := range t.Keys() {
			if ctx.Err() != nil {
				return
			}
			s.logger.Info("Background refresh", "provider", t.Name(), "period", period)
			t.Refresh(ctx, period)
		}
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}
