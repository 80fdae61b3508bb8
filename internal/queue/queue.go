// Package queue implements at-least-once outbound delivery with bounded
// retries and a bounded buffer. Data loss on overflow is a logged, expected
// trade-off, not an error.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Item wraps one payload destined for the external real-time store.
type Item struct {
	Payload    domain.PublishPayload
	EnqueuedAt time.Time
	RetryCount int
}

// Options tune queue bounds and pacing.
type Options struct {
	Capacity        int
	MaxRetries      int
	Pacing          time.Duration
	DeliveryTimeout time.Duration
}

// DeliveryQueue retries each item until delivered or the retry ceiling is
// hit. Concurrent drains are prevented by a processing flag, not a blocking
// lock, so a slow drain never stalls enqueues.
type DeliveryQueue struct {
	mu        sync.Mutex
	items     []Item
	opts      Options
	publisher ports.Publisher
	draining  atomic.Bool
	logger    *slog.Logger
}

// New builds a queue; zero options fall back to capacity 1000, 3 retries,
// 500ms pacing.
func New(publisher ports.Publisher, opts Options, logger *slog.Logger) *DeliveryQueue {
	if opts.Capacity <= 0 {
		opts.Capacity = 1000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Pacing <= 0 {
		opts.Pacing = 500 * time.Millisecond
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 15 * time.Second
	}
	return &DeliveryQueue{opts: opts, publisher: publisher, logger: logger}
}

// Enqueue appends a payload; on overflow the oldest item is evicted.
func (q *DeliveryQueue) Enqueue(p domain.PublishPayload) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Item{Payload: p, EnqueuedAt: time.Now()})
	if len(q.items) > q.opts.Capacity {
		dropped := len(q.items) - q.opts.Capacity
		q.items = q.items[dropped:]
		if q.logger != nil {
			q.logger.Warn("delivery queue overflow, oldest evicted", "dropped", dropped)
		}
	}
}

// Len returns the number of pending items.
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Oldest returns the front payload for inspection in tests and diagnostics.
func (q *DeliveryQueue) Oldest() (domain.PublishPayload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.PublishPayload{}, false
	}
	return q.items[0].Payload, true
}

// ProcessAll drains the items present at call time; failed items are
// re-appended with an incremented retry count unless the ceiling is reached,
// in which case they are dropped with a logged error. A concurrent call while
// draining is a no-op.
func (q *DeliveryQueue) ProcessAll(ctx context.Context) {
	if !q.draining.CompareAndSwap(false, true) {
		return
	}
	defer q.draining.Store(false)

	q.mu.Lock()
	batch := len(q.items)
	q.mu.Unlock()

	for i := 0; i < batch; i++ {
		if ctx.Err() != nil {
			return
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := q.deliver(ctx, item.Payload); err != nil {
			item.RetryCount++
			if item.RetryCount >= q.opts.MaxRetries {
				if q.logger != nil {
					q.logger.Error("delivery dropped after retry ceiling",
						"retries", item.RetryCount, "error", err)
				}
			} else {
				q.mu.Lock()
				q.items = append(q.items, item)
				q.mu.Unlock()
			}
		}

		// Fixed delay between deliveries to respect the target's rate
		// expectations.
		if i < batch-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.opts.Pacing):
			}
		}
	}
}

func (q *DeliveryQueue) deliver(ctx context.Context, p domain.PublishPayload) error {
	callCtx, cancel := context.WithTimeout(ctx, q.opts.DeliveryTimeout)
	defer cancel()
	return q.publisher.Publish(callCtx, p)
}
