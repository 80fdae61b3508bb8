package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/domain"
)

type stubRepo struct {
	recent []domain.Complaint
	since  time.Time
}

func (s *stubRepo) Save(ctx context.Context, c *domain.Complaint) error { return nil }
func (s *stubRepo) Active(ctx context.Context) ([]domain.Complaint, error) {
	return nil, nil
}
func (s *stubRepo) AddSupporter(ctx context.Context, id string) error { return nil }
func (s *stubRepo) RecentByCategory(ctx context.Context, category string, since time.Time) ([]domain.Complaint, error) {
	s.since = since
	out := make([]domain.Complaint, 0, len(s.recent))
	for _, c := range s.recent {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out, nil
}

func ptr(f float64) *float64 { return &f }

func TestDuplicateByCoordinates(t *testing.T) {
	t.Parallel()

	// Existing record ~80m away in the same category.
	repo := &stubRepo{recent: []domain.Complaint{{
		ID: "existing", Category: "Roads",
		Lat: ptr(60.9344), Lon: ptr(76.5531),
	}}}
	checker := New(repo, Thresholds{}, nil)

	cand := &domain.Complaint{
		Category: "Roads",
		Lat:      ptr(60.9344 + 0.0007), Lon: ptr(76.5531),
	}
	dup, err := checker.IsDuplicate(context.Background(), cand)
	require.NoError(t, err)
	assert.True(t, dup)

	// Seven-day window is passed down to the repository query.
	assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), repo.since, time.Minute)
}

func TestDifferentCategoryIsNotDuplicate(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{recent: []domain.Complaint{{
		ID: "existing", Category: "Roads",
		Lat: ptr(60.9344), Lon: ptr(76.5531),
	}}}
	checker := New(repo, Thresholds{}, nil)

	cand := &domain.Complaint{
		Category: "Lighting",
		Lat:      ptr(60.9344), Lon: ptr(76.5531),
	}
	dup, err := checker.IsDuplicate(context.Background(), cand)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestDuplicateByAddressPrefix(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{recent: []domain.Complaint{{
		ID: "existing", Category: "Garbage",
		Address: "ul. Lenina 15, Nizhnevartovsk",
	}}}
	checker := New(repo, Thresholds{}, nil)

	cand := &domain.Complaint{
		Category: "Garbage",
		Address:  "UL. LENINA 15, NIZHNEVARTOVSK (near the entrance)",
	}
	dup, err := checker.IsDuplicate(context.Background(), cand)
	require.NoError(t, err)
	assert.True(t, dup, "address prefix containment must be case-insensitive")
}

func TestDuplicateByDescription(t *testing.T) {
	t.Parallel()

	desc := "Huge pothole right in the middle of the road near the school, cars are swerving into the oncoming lane"
	repo := &stubRepo{recent: []domain.Complaint{{
		ID: "existing", Category: "Roads", Description: desc,
	}}}
	checker := New(repo, Thresholds{}, nil)

	cand := &domain.Complaint{Category: "Roads", Description: desc + " and it keeps growing"}
	dup, err := checker.IsDuplicate(context.Background(), cand)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestFarApartIsNotDuplicate(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{recent: []domain.Complaint{{
		ID: "existing", Category: "Roads",
		Lat: ptr(60.9344), Lon: ptr(76.5531),
		Address:     "ul. Mira 2",
		Description: "pothole near the bridge",
	}}}
	checker := New(repo, Thresholds{}, nil)

	cand := &domain.Complaint{
		Category: "Roads",
		Lat:      ptr(60.9500), Lon: ptr(76.6000),
		Address:     "ul. Internatsionalnaya 40",
		Description: "asphalt collapsed at the bus stop",
	}
	dup, err := checker.IsDuplicate(context.Background(), cand)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestPublishedRing(t *testing.T) {
	t.Parallel()

	ring := NewPublishedRing(3)
	p := domain.PublishPayload{
		Text:    "Big pothole on Lenina street 15, dangerous for cars, please fix it",
		Address: "ul. Lenina 15, Nizhnevartovsk",
	}

	assert.False(t, ring.Seen(p))
	ring.Remember(p)
	assert.True(t, ring.Seen(p), "just-published payload must be recognized")

	// Capacity bound: three newer items push the first one out.
	for i, text := range []string{
		"Streetlight is out near the drama theater, very dark in the evenings",
		"Garbage containers overflowing in the yard on Mira 4, smell is terrible",
		"Open manhole at the crossing of Lenina and Mira, needs a cover urgently",
	} {
		ring.Remember(domain.PublishPayload{Text: text, Address: "addr", Summary: string(rune('a' + i))})
	}
	assert.False(t, ring.Seen(p), "evicted payload must be forgotten")
}
