package domain

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Accuracy grades how trustworthy a resolved coordinate is.
type Accuracy string

const (
	AccuracyHigh   Accuracy = "high"
	AccuracyMedium Accuracy = "medium"
	AccuracyNone   Accuracy = "none"
)

func (a Accuracy) rank() int {
	switch a {
	case AccuracyHigh:
		return 2
	case AccuracyMedium:
		return 1
	default:
		return 0
	}
}

// ResolutionSource records which strategy produced a location.
type ResolutionSource string

const (
	ResolvedFromAIAddress    ResolutionSource = "ai-address"
	ResolvedFromTextParser   ResolutionSource = "text-parser"
	ResolvedFromLandmark     ResolutionSource = "landmark"
	ResolvedFromIntersection ResolutionSource = "intersection-average"
	ResolvedFromHint         ResolutionSource = "hint-geocoded"
	ResolvedFromDevice       ResolutionSource = "device"
)

// ResolvedLocation is the outcome of address resolution. If one of Lat/Lon is
// present, both are.
type ResolvedLocation struct {
	Address  string
	Lat      *float64
	Lon      *float64
	Accuracy Accuracy
	Source   ResolutionSource
}

// HasCoords reports whether a full coordinate pair was resolved.
func (l ResolvedLocation) HasCoords() bool {
	return l.Lat != nil && l.Lon != nil
}

// Merge combines two resolutions of the same problem, keeping the coordinates
// of whichever carries the higher accuracy. A high-accuracy location is never
// replaced by a lower-accuracy one; the textual address fills in from either
// side.
func (l ResolvedLocation) Merge(other ResolvedLocation) ResolvedLocation {
	out := l
	if other.Accuracy.rank() > l.Accuracy.rank() {
		out.Lat, out.Lon = other.Lat, other.Lon
		out.Accuracy = other.Accuracy
		out.Source = other.Source
	}
	if out.Address == "" {
		out.Address = other.Address
	}
	return out
}
