// Package clustering groups active complaints by density for map aggregation.
package clustering

import "math"

// Point is one clusterable record.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Group is one density cluster; noise points are excluded from output.
type Group struct {
	Points    []Point
	CenterLat float64
	CenterLon float64
}

const (
	earthRadiusMeters = 6371000.0

	labelUnvisited = 0
	labelNoise     = -1
)

// Cluster runs DBSCAN over haversine distance. minClusterSize below 2 is
// raised to 2 so single points never form a cluster; minSamples of 0 inherits
// minClusterSize. Unclustered points are dropped, not returned as singleton
// clusters; callers needing full coverage union clustered and raw points
// themselves.
func Cluster(points []Point, epsMeters float64, minClusterSize, minSamples int) []Group {
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	if minSamples <= 0 {
		minSamples = minClusterSize
	}
	if epsMeters <= 0 || len(points) < minClusterSize {
		return nil
	}

	labels := make([]int, len(points))
	next := 1

	for i := range points {
		if labels[i] != labelUnvisited {
			continue
		}

		neighbors := regionQuery(points, i, epsMeters)
		// The eps-neighborhood of a point includes the point itself.
		if len(neighbors)+1 < minSamples {
			labels[i] = labelNoise
			continue
		}

		labels[i] = next
		expand(points, labels, neighbors, next, epsMeters, minSamples)
		next++
	}

	byLabel := make(map[int][]Point)
	for i, lbl := range labels {
		if lbl > 0 {
			byLabel[lbl] = append(byLabel[lbl], points[i])
		}
	}

	groups := make([]Group, 0, len(byLabel))
	for lbl := 1; lbl < next; lbl++ {
		members := byLabel[lbl]
		if len(members) < minClusterSize {
			continue
		}
		groups = append(groups, Group{
			Points:    members,
			CenterLat: mean(members, func(p Point) float64 { return p.Lat }),
			CenterLon: mean(members, func(p Point) float64 { return p.Lon }),
		})
	}
	return groups
}

func expand(points []Point, labels []int, seeds []int, label int, eps float64, minSamples int) {
	for k := 0; k < len(seeds); k++ {
		j := seeds[k]
		if labels[j] == labelNoise {
			labels[j] = label
		}
		if labels[j] != labelUnvisited {
			continue
		}
		labels[j] = label

		neighbors := regionQuery(points, j, eps)
		if len(neighbors)+1 >= minSamples {
			seeds = append(seeds, neighbors...)
		}
	}
}

func regionQuery(points []Point, i int, eps float64) []int {
	var out []int
	for j := range points {
		if j == i {
			continue
		}
		if haversineMeters(points[i], points[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// haversineMeters computes great-circle distance on (lat, lon) in radians.
func haversineMeters(a, b Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func mean(points []Point, f func(Point) float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += f(p)
	}
	return sum / float64(len(points))
}
