// Package scheduler runs periodic jobs on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"CityWatch/internal/ports"
)

// TickerScheduler fires the job immediately on Start and then once per
// interval until Stop or context cancellation.
type TickerScheduler struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

func NewTickerScheduler(interval time.Duration, logger *slog.Logger) *TickerScheduler {
	return &TickerScheduler{interval: interval, logger: logger}
}

func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		job(time.Now())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				s.logger.Debug("scheduler stopped")
				return
			case tick := <-ticker.C:
				job(tick)
			}
		}
	}()
	return nil
}

func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.started = false
	return nil
}
