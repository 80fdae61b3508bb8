package dedup

import (
	"math"
	"strings"
	"sync"

	"CityWatch/internal/domain"
)

// PublishedRing is the second, independent dedup stage guarding outbound
// publication: it remembers the last N published payloads so a record is not
// re-announced even if it was persisted moments earlier.
type PublishedRing struct {
	mu       sync.Mutex
	items    []domain.PublishPayload
	capacity int
}

const coordEpsilon = 0.0005

// NewPublishedRing builds a ring; capacity 0 defaults to 50.
func NewPublishedRing(capacity int) *PublishedRing {
	if capacity <= 0 {
		capacity = 50
	}
	return &PublishedRing{capacity: capacity}
}

// Seen reports whether an equivalent payload was published recently, matching
// by text, address substring, or near-identical coordinates.
func (r *PublishedRing) Seen(p domain.PublishPayload) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		prev := &r.items[i]
		if textOverlap(p.Text, prev.Text) || textOverlap(p.Summary, prev.Summary) {
			return true
		}
		if p.Address != "" && prev.Address != "" && textOverlap(p.Address, prev.Address) {
			return true
		}
		if p.Lat != nil && p.Lng != nil && prev.Lat != nil && prev.Lng != nil &&
			math.Abs(*p.Lat-*prev.Lat) < coordEpsilon && math.Abs(*p.Lng-*prev.Lng) < coordEpsilon {
			return true
		}
	}
	return false
}

// Remember records a published payload, evicting the oldest past capacity.
func (r *PublishedRing) Remember(p domain.PublishPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, p)
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
}

func textOverlap(a, b string) bool {
	return prefixContained(strings.TrimSpace(a), strings.TrimSpace(b), 40)
}
