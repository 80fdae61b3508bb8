package geo

import (
	"strings"

	"CityWatch/internal/domain"
)

// Landmark is one gazetteer entry: a well-known local place with fixed
// coordinates.
type Landmark struct {
	Keywords []string
	Address  string
	Point    domain.GeoPoint
}

// DefaultLandmarks covers the places residents name instead of an address.
func DefaultLandmarks() []Landmark {
	return []Landmark{
		{
			Keywords: []string{"central market", "city market"},
			Address:  "Central Market",
			Point:    domain.GeoPoint{Lat: 60.9397, Lon: 76.5692},
		},
		{
			Keywords: []string{"drama theater", "drama theatre"},
			Address:  "Drama Theater",
			Point:    domain.GeoPoint{Lat: 60.9433, Lon: 76.5541},
		},
		{
			Keywords: []string{"river port", "embankment"},
			Address:  "River Port",
			Point:    domain.GeoPoint{Lat: 60.9262, Lon: 76.5517},
		},
		{
			Keywords: []string{"victory park"},
			Address:  "Victory Park",
			Point:    domain.GeoPoint{Lat: 60.9366, Lon: 76.5754},
		},
		{
			Keywords: []string{"central stadium", "the stadium"},
			Address:  "Central Stadium",
			Point:    domain.GeoPoint{Lat: 60.9489, Lon: 76.6011},
		},
		{
			Keywords: []string{"railway station", "train station"},
			Address:  "Railway Station",
			Point:    domain.GeoPoint{Lat: 60.9552, Lon: 76.5223},
		},
		{
			Keywords: []string{"airport"},
			Address:  "Airport",
			Point:    domain.GeoPoint{Lat: 60.9493, Lon: 76.4836},
		},
	}
}

// matchLandmark scans the gazetteer for a keyword mentioned in the text.
func matchLandmark(landmarks []Landmark, text string) (Landmark, bool) {
	lower := strings.ToLower(text)
	for _, lm := range landmarks {
		for _, kw := range lm.Keywords {
			if strings.Contains(lower, kw) {
				return lm, true
			}
		}
	}
	return Landmark{}, false
}
