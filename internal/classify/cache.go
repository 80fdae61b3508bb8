package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"CityWatch/internal/domain"
)

// resultCache memoizes classification results per (model, text-prefix) hash.
// Capacity-bounded; overflow evicts the entry with the oldest store time.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type cacheEntry struct {
	result   domain.ClassificationResult
	storedAt time.Time
}

const cacheKeyPrefixLen = 500

func newResultCache(ttl time.Duration, capacity int) *resultCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &resultCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

func cacheKey(model, text string) string {
	if len(text) > cacheKeyPrefixLen {
		text = text[:cacheKeyPrefixLen]
	}
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *resultCache) get(key string) (domain.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.ClassificationResult{}, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return domain.ClassificationResult{}, false
	}
	return e.result, true
}

func (c *resultCache) put(key string, res domain.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = cacheEntry{result: res, storedAt: c.now()}
}
