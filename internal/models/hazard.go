package models

import "fmt"

// HazardZone is a polygon with a severity weight. Geometry is only used for
// containment and proximity tests; never mutated after load.
type HazardZone struct {
	Name     string
	Polygon  []Coordinates
	Severity float64
}

func NewHazardZone(name string, polygon []Coordinates, severity float64) (HazardZone, error) {
	if len(polygon) < 3 {
		return HazardZone{}, fmt.Errorf("hazard zone %s: polygon needs at least 3 vertices, got %d", name, len(polygon))
	}
	if severity < 0 {
		return HazardZone{}, fmt.Errorf("hazard zone %s: negative severity %f", name, severity)
	}
	for i, v := range polygon {
		if !v.Valid() {
			return HazardZone{}, fmt.Errorf("hazard zone %s: vertex %d out of range", name, i)
		}
	}
	return HazardZone{Name: name, Polygon: polygon, Severity: severity}, nil
}
