// Package ratelimit provides sliding-window admission control per
// (action, identity) key.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits up to max requests per key within a sliding window.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time
}

// New builds a limiter; zero values fall back to 60s / 10 requests.
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 10
	}
	return &Limiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow evicts timestamps older than the window, then admits the request iff
// fewer than max remain, recording the new timestamp on admission. A rejection
// is a decision, not an error; the caller picks retry timing.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.hits[key]
	for len(stamps) > 0 && stamps[0].Before(cutoff) {
		stamps = stamps[1:]
	}

	if len(stamps) >= l.max {
		l.hits[key] = stamps
		return false
	}

	l.hits[key] = append(stamps, now)
	return true
}

// Set groups the three limiter instances used by the synchronous surface.
type Set struct {
	Submit  *Limiter
	Admin   *Limiter
	General *Limiter
}

// NewSet builds the three limiters over a shared window.
func NewSet(window time.Duration, submit, admin, general int) *Set {
	return &Set{
		Submit:  New(window, submit),
		Admin:   New(window, admin),
		General: New(window, general),
	}
}
