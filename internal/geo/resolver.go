// Package geo resolves complaint text to an address and coordinates through a
// fixed chain of strategies; the first one that succeeds wins.
package geo

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Resolver runs the strategy chain on classified text.
type Resolver struct {
	geocoder  ports.Geocoder
	landmarks []Landmark
	city      string
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]domain.GeoPoint
}

// New builds a resolver. A nil landmark slice falls back to the built-in
// gazetteer.
func New(geocoder ports.Geocoder, landmarks []Landmark, city string, logger *slog.Logger) *Resolver {
	if landmarks == nil {
		landmarks = DefaultLandmarks()
	}
	return &Resolver{
		geocoder:  geocoder,
		landmarks: landmarks,
		city:      city,
		logger:    logger,
		cache:     make(map[string]domain.GeoPoint),
	}
}

// Resolve tries, in order: the AI-proposed address, the regex street parser
// (including intersection averaging), the landmark gazetteer, and finally the
// AI location hint. A failed strategy falls through to the next one.
func (r *Resolver) Resolve(ctx context.Context, cls domain.ClassificationResult, text string) domain.ResolvedLocation {
	if cls.AddressHint != "" {
		if pt, ok := r.geocode(ctx, r.withCity(cls.AddressHint)); ok {
			return located(r.withCity(cls.AddressHint), pt, addressAccuracy(cls.AddressHint), domain.ResolvedFromAIAddress)
		}
	}

	parsed, hasParsed := ParseAddress(text)
	if hasParsed {
		addr := parsed.Format(r.city)
		if pt, ok := r.geocode(ctx, addr); ok {
			acc := domain.AccuracyMedium
			if parsed.Building != "" {
				acc = domain.AccuracyHigh
			}
			return located(addr, pt, acc, domain.ResolvedFromTextParser)
		}
	}

	if a, b, ok := ParseIntersection(text); ok {
		if pt, ok := r.averageStreets(ctx, a, b); ok {
			addr := "ul. " + a + " / ul. " + b
			if r.city != "" {
				addr += ", " + r.city
			}
			return located(addr, pt, domain.AccuracyMedium, domain.ResolvedFromIntersection)
		}
	}

	if lm, ok := matchLandmark(r.landmarks, text); ok {
		addr := lm.Address
		if r.city != "" {
			addr += ", " + r.city
		}
		return located(addr, lm.Point, domain.AccuracyMedium, domain.ResolvedFromLandmark)
	}

	if cls.LocationHints != "" {
		if pt, ok := r.geocode(ctx, r.withCity(cls.LocationHints)); ok {
			return located(r.withCity(cls.LocationHints), pt, domain.AccuracyMedium, domain.ResolvedFromHint)
		}
	}

	if hasParsed {
		// The street parser found an address the geocoder could not place;
		// keep the address so the organization matcher can still work.
		return domain.ResolvedLocation{
			Address:  parsed.Format(r.city),
			Accuracy: domain.AccuracyNone,
			Source:   domain.ResolvedFromTextParser,
		}
	}

	return domain.ResolvedLocation{Accuracy: domain.AccuracyNone}
}

// geocode consults the process-lifetime cache before the external service.
// Keys are normalized lowercase address strings.
func (r *Resolver) geocode(ctx context.Context, address string) (domain.GeoPoint, bool) {
	key := normalizeKey(address)
	if key == "" {
		return domain.GeoPoint{}, false
	}

	r.mu.Lock()
	pt, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return pt, true
	}

	if r.geocoder == nil {
		return domain.GeoPoint{}, false
	}
	pt, found, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("geocode failed", "address", address, "error", err)
		}
		return domain.GeoPoint{}, false
	}
	if !found {
		return domain.GeoPoint{}, false
	}

	r.mu.Lock()
	r.cache[key] = pt
	r.mu.Unlock()
	return pt, true
}

// averageStreets geocodes both streets of an intersection and averages the
// coordinates.
func (r *Resolver) averageStreets(ctx context.Context, a, b string) (domain.GeoPoint, bool) {
	ptA, okA := r.geocode(ctx, ParsedAddress{Street: a}.Format(r.city))
	ptB, okB := r.geocode(ctx, ParsedAddress{Street: b}.Format(r.city))
	if !okA || !okB {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{
		Lat: (ptA.Lat + ptB.Lat) / 2,
		Lon: (ptA.Lon + ptB.Lon) / 2,
	}, true
}

func (r *Resolver) withCity(address string) string {
	if r.city == "" || strings.Contains(strings.ToLower(address), strings.ToLower(r.city)) {
		return address
	}
	return address + ", " + r.city
}

// addressAccuracy grades an AI-proposed address: a house number makes it a
// full street+building match.
func addressAccuracy(address string) domain.Accuracy {
	if strings.IndexFunc(address, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
		return domain.AccuracyHigh
	}
	return domain.AccuracyMedium
}

func located(address string, pt domain.GeoPoint, acc domain.Accuracy, src domain.ResolutionSource) domain.ResolvedLocation {
	lat, lon := pt.Lat, pt.Lon
	return domain.ResolvedLocation{
		Address:  address,
		Lat:      &lat,
		Lon:      &lon,
		Accuracy: acc,
		Source:   src,
	}
}

func normalizeKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
