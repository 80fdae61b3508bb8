package clustering

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Service re-clusters the full active record set wholesale on demand, caching
// the result briefly under a single key.
type Service struct {
	repo           ports.ComplaintRepository
	epsMeters      float64
	minClusterSize int
	minSamples     int
	ttl            time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	cached   []domain.Cluster
	cachedAt time.Time
	now      func() time.Time
}

// NewService builds the clustering view; ttl 0 defaults to 5 minutes.
func NewService(repo ports.ComplaintRepository, epsMeters float64, minClusterSize, minSamples int, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if epsMeters <= 0 {
		epsMeters = 300
	}
	return &Service{
		repo:           repo,
		epsMeters:      epsMeters,
		minClusterSize: minClusterSize,
		minSamples:     minSamples,
		ttl:            ttl,
		logger:         logger,
		now:            time.Now,
	}
}

// Clusters returns the density clusters of active complaints, recomputing at
// most once per TTL.
func (s *Service) Clusters(ctx context.Context) ([]domain.Cluster, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	records, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(records))
	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		points = append(points, Point{ID: r.ID, Lat: *r.Lat, Lon: *r.Lon})
	}

	groups := Cluster(points, s.epsMeters, s.minClusterSize, s.minSamples)
	clusters := make([]domain.Cluster, 0, len(groups))
	for i, g := range groups {
		ids := make([]string, 0, len(g.Points))
		for _, p := range g.Points {
			ids = append(ids, p.ID)
		}
		clusters = append(clusters, domain.Cluster{
			Label:        i,
			Count:        len(g.Points),
			CenterLat:    g.CenterLat,
			CenterLon:    g.CenterLon,
			ComplaintIDs: ids,
		})
	}

	if s.logger != nil {
		s.logger.Debug("reclustered active records",
			"records", len(records), "points", len(points), "clusters", len(clusters))
	}

	s.mu.Lock()
	s.cached = clusters
	s.cachedAt = s.now()
	s.mu.Unlock()
	return clusters, nil
}
