// Package guard filters stale and already-seen source messages. Its state is
// process-local: a restart reprocesses very recent messages, which the
// cross-record deduplicator absorbs downstream.
package guard

import (
	"log/slog"
	"sync"
	"time"

	"CityWatch/internal/domain"
)

// Guard tracks process start time and a bounded set of seen message keys.
type Guard struct {
	mu        sync.Mutex
	startedAt time.Time
	seen      map[string]time.Time
	order     []string
	highWater int
	lowWater  int
	logger    *slog.Logger
}

// New builds a guard anchored at the current time. Once the seen-set exceeds
// highWater entries, the oldest are evicted down to lowWater.
func New(highWater, lowWater int, logger *slog.Logger) *Guard {
	if highWater <= 0 {
		highWater = 10000
	}
	if lowWater <= 0 || lowWater >= highWater {
		lowWater = highWater / 2
	}
	return &Guard{
		startedAt: time.Now(),
		seen:      make(map[string]time.Time),
		highWater: highWater,
		lowWater:  lowWater,
		logger:    logger,
	}
}

// IsNew reports whether the source timestamp postdates process start. An
// absent timestamp is treated as new so that legitimate messages lacking
// metadata are not dropped.
func (g *Guard) IsNew(ts time.Time) bool {
	if ts.IsZero() {
		if g.logger != nil {
			g.logger.Warn("message without timestamp accepted as new")
		}
		return true
	}
	return !ts.Before(g.startedAt)
}

// IsDuplicate reports whether the message key was already processed.
func (g *Guard) IsDuplicate(kind domain.SourceKind, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[seenKey(kind, id)]
	return ok
}

// MarkProcessed records the message key, evicting oldest entries FIFO when
// the set grows past the high-water mark. Processing order approximates
// recency, so FIFO is as good as LRU here.
func (g *Guard) MarkProcessed(kind domain.SourceKind, id string) {
	key := seenKey(kind, id)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[key]; ok {
		return
	}
	g.seen[key] = time.Now()
	g.order = append(g.order, key)

	if len(g.seen) <= g.highWater {
		return
	}
	evicted := 0
	for len(g.seen) > g.lowWater && len(g.order) > 0 {
		oldest := g.order[0]
		g.order = g.order[1:]
		if _, ok := g.seen[oldest]; ok {
			delete(g.seen, oldest)
			evicted++
		}
	}
	if g.logger != nil {
		g.logger.Info("seen-set pruned", "evicted", evicted, "remaining", len(g.seen))
	}
}

// Len returns the current seen-set size.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func seenKey(kind domain.SourceKind, id string) string {
	return string(kind) + ":" + id
}
