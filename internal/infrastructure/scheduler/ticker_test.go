package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerRunsImmediatelyAndStops(t *testing.T) {
	s := NewTickerScheduler(10*time.Millisecond, slog.Default())

	var runs atomic.Int32
	s.Start(context.Background(), func(time.Time) { runs.Add(1) })

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatal("job ran after Stop")
	}
}

func TestTickerStartIsIdempotent(t *testing.T) {
	s := NewTickerScheduler(time.Hour, slog.Default())

	var runs atomic.Int32
	s.Start(context.Background(), func(time.Time) { runs.Add(1) })
	s.Start(context.Background(), func(time.Time) { runs.Add(1) })

	time.Sleep(20 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected single immediate run, got %d", got)
	}
	_ = s.Stop(context.Background())
}
