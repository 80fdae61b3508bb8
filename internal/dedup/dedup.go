// Package dedup rejects records that are near-duplicates of recent ones. The
// checks are deliberately cheap and order-sensitive, favoring recall over
// precision on "likely the same problem".
package dedup

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Thresholds are tunable policy, not a fixed contract.
type Thresholds struct {
	Window           time.Duration
	BBoxLatDegrees   float64
	BBoxLonDegrees   float64
	AddressPrefixLen int
	DescShortLen     int
	DescLongLen      int
}

// DefaultThresholds approximates a ~100m box at northern latitudes with a
// 7-day window.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Window:           7 * 24 * time.Hour,
		BBoxLatDegrees:   0.0009,
		BBoxLonDegrees:   0.0019,
		AddressPrefixLen: 30,
		DescShortLen:     50,
		DescLongLen:      100,
	}
}

// Checker compares a candidate record against recent persisted ones.
type Checker struct {
	repo   ports.ComplaintRepository
	th     Thresholds
	logger *slog.Logger
	now    func() time.Time
}

// New builds a checker; zero thresholds fall back to defaults.
func New(repo ports.ComplaintRepository, th Thresholds, logger *slog.Logger) *Checker {
	def := DefaultThresholds()
	if th.Window <= 0 {
		th.Window = def.Window
	}
	if th.BBoxLatDegrees <= 0 {
		th.BBoxLatDegrees = def.BBoxLatDegrees
	}
	if th.BBoxLonDegrees <= 0 {
		th.BBoxLonDegrees = def.BBoxLonDegrees
	}
	if th.AddressPrefixLen <= 0 {
		th.AddressPrefixLen = def.AddressPrefixLen
	}
	if th.DescShortLen <= 0 {
		th.DescShortLen = def.DescShortLen
	}
	if th.DescLongLen <= 0 {
		th.DescLongLen = def.DescLongLen
	}
	return &Checker{repo: repo, th: th, logger: logger, now: time.Now}
}

// IsDuplicate reports whether a same-category record created within the window
// matches the candidate by coordinates, address prefix, or description
// prefix. Checks run in that order and short-circuit.
func (c *Checker) IsDuplicate(ctx context.Context, cand *domain.Complaint) (bool, error) {
	since := c.now().Add(-c.th.Window)
	recent, err := c.repo.RecentByCategory(ctx, cand.Category, since)
	if err != nil {
		return false, err
	}

	for i := range recent {
		existing := &recent[i]
		if c.sameLocation(cand, existing) || c.sameAddress(cand, existing) || c.sameDescription(cand, existing) {
			if c.logger != nil {
				c.logger.Info("duplicate record rejected",
					"category", cand.Category, "existing_id", existing.ID)
			}
			return true, nil
		}
	}
	return false, nil
}

func (c *Checker) sameLocation(a, b *domain.Complaint) bool {
	if !a.HasCoords() || !b.HasCoords() {
		return false
	}
	return math.Abs(*a.Lat-*b.Lat) <= c.th.BBoxLatDegrees &&
		math.Abs(*a.Lon-*b.Lon) <= c.th.BBoxLonDegrees
}

func (c *Checker) sameAddress(a, b *domain.Complaint) bool {
	return prefixContained(a.Address, b.Address, c.th.AddressPrefixLen)
}

func (c *Checker) sameDescription(a, b *domain.Complaint) bool {
	return prefixContained(a.Description, b.Description, c.th.DescShortLen) ||
		prefixContained(a.Description, b.Description, c.th.DescLongLen)
}

// prefixContained checks case-insensitive containment of the first n
// characters, in either direction.
func prefixContained(a, b string, n int) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(b, prefix(a, n)) || strings.Contains(a, prefix(b, n))
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
