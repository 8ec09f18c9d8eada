// Package geo provides the spherical geometry used by the risk scorers and
// the routing engine: great-circle distance, polygon containment and
// proximity, and straight-line interpolation.
package geo

import (
	"math"

	"github.com/arjunkp/crowdshield/internal/models"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b models.Coordinates) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Midpoint returns the arithmetic midpoint of two points. Good enough at the
// city scale the engine works at.
func Midpoint(a, b models.Coordinates) models.Coordinates {
	return models.Coordinates{
		Latitude:  (a.Latitude + b.Latitude) / 2,
		Longitude: (a.Longitude + b.Longitude) / 2,
	}
}

// PointInPolygon reports whether p lies inside the polygon, using ray
// casting on the lat/lon plane. Vertices on an edge count as inside.
func PointInPolygon(p models.Coordinates, polygon []models.Coordinates) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		vi, vj := polygon[i], polygon[j]
		if (vi.Latitude > p.Latitude) != (vj.Latitude > p.Latitude) {
			cross := (vj.Longitude-vi.Longitude)*(p.Latitude-vi.Latitude)/(vj.Latitude-vi.Latitude) + vi.Longitude
			if p.Longitude < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// DistanceToPolygonKm returns the distance from p to the nearest polygon
// edge, or 0 when p is inside the polygon.
func DistanceToPolygonKm(p models.Coordinates, polygon []models.Coordinates) float64 {
	if PointInPolygon(p, polygon) {
		return 0
	}
	best := math.Inf(1)
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		if d := distanceToSegmentKm(p, polygon[j], polygon[i]); d < best {
			best = d
		}
		j = i
	}
	return best
}

// distanceToSegmentKm projects p onto segment ab in lat/lon space and
// measures the haversine distance to the closest point.
func distanceToSegmentKm(p, a, b models.Coordinates) float64 {
	dx := b.Latitude - a.Latitude
	dy := b.Longitude - a.Longitude
	if dx == 0 && dy == 0 {
		return HaversineKm(p, a)
	}
	t := ((p.Latitude-a.Latitude)*dx + (p.Longitude-a.Longitude)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	closest := models.Coordinates{
		Latitude:  a.Latitude + t*dx,
		Longitude: a.Longitude + t*dy,
	}
	return HaversineKm(p, closest)
}

// Interpolate returns segments+1 evenly spaced points from a to b inclusive.
func Interpolate(a, b models.Coordinates, segments int) []models.Coordinates {
	if segments < 1 {
		segments = 1
	}
	points := make([]models.Coordinates, 0, segments+1)
	for i := 0; i <= segments; i++ {
		f := float64(i) / float64(segments)
		points = append(points, models.Coordinates{
			Latitude:  a.Latitude + (b.Latitude-a.Latitude)*f,
			Longitude: a.Longitude + (b.Longitude-a.Longitude)*f,
		})
	}
	return points
}
