// Package geo holds the distance math and region lookup used by ranking.
package geo

import (
	"fmt"
	"math"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
)

const (
	EarthRadiusKm = 6371.0

	// RegionRadiusKm is how close a point must be to a region centre to
	// resolve to that region.
	RegionRadiusKm = 1.0

	DefaultRegion = "City Centre"
)

// regions is the fixed lookup table. Order matters: on an exact distance tie
// the earlier entry wins.
var regions = []domain.Region{
	{Name: "Digbeth", Center: domain.Coordinates{Latitude: 52.4751, Longitude: -1.8839}},
	{Name: "Jewellery Quarter", Center: domain.Coordinates{Latitude: 52.4890, Longitude: -1.9110}},
	{Name: "Edgbaston", Center: domain.Coordinates{Latitude: 52.4620, Longitude: -1.9230}},
	{Name: "Moseley", Center: domain.Coordinates{Latitude: 52.4460, Longitude: -1.8870}},
	{Name: "Kings Heath", Center: domain.Coordinates{Latitude: 52.4320, Longitude: -1.8930}},
	{Name: "Harborne", Center: domain.Coordinates{Latitude: 52.4600, Longitude: -1.9530}},
	{Name: "Selly Oak", Center: domain.Coordinates{Latitude: 52.4370, Longitude: -1.9360}},
	{Name: "Bearwood", Center: domain.Coordinates{Latitude: 52.4770, Longitude: -1.9780}},
}

// DefaultCenter stands in for the user's position until one is known.
var DefaultCenter = domain.Coordinates{Latitude: 52.4862, Longitude: -1.8904}

// Regions returns a copy of the region table.
func Regions() []domain.Region {
	out := make([]domain.Region, len(regions))
	copy(out, regions)
	return out
}

// Distance returns the haversine great-circle distance in kilometres.
// Invalid coordinates are treated as infinitely far apart.
func Distance(a, b domain.Coordinates) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceToText renders a distance as a short travel-time phrase.
func DistanceToText(km float64) string {
	if math.IsNaN(km) || km < 0 {
		km = 0
	}
	switch {
	case math.IsInf(km, 1):
		return "far away"
	case km < 0.3:
		return "2 min walk"
	case km < 0.5:
		return "5 min walk"
	case km < 1:
		return fmt.Sprintf("%d min walk", int(math.Round(km*12)))
	case km < 2:
		return fmt.Sprintf("%d min walk", int(math.Round(km*10)))
	case km < 5:
		return fmt.Sprintf("%d min drive", int(math.Round(km*3)))
	default:
		return fmt.Sprintf("%d km away", int(math.Round(km)))
	}
}

// LookupRegion returns the nearest region within RegionRadiusKm.
func LookupRegion(c domain.Coordinates) (domain.Region, bool) {
	if !c.Valid() {
		return domain.Region{}, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i, r := range regions {
		d := Distance(c, r.Center)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > RegionRadiusKm {
		return domain.Region{}, false
	}
	return regions[best], true
}

// ResolveRegion is LookupRegion with the default label as fallback. It never
// returns an empty string.
func ResolveRegion(c domain.Coordinates) string {
	if r, ok := LookupRegion(c); ok {
		return r.Name
	}
	return DefaultRegion
}
