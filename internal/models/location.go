package models

import "fmt"

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Location is a named point on the map: a shelter (Capacity > 0) or a plain
// waypoint. Immutable after construction; loaded once per session.
type Location struct {
	ID        string
	Latitude  float64
	Longitude float64
	Capacity  int
}

func NewLocation(id string, lat, lon float64, capacity int) (Location, error) {
	loc := Location{ID: id, Latitude: lat, Longitude: lon, Capacity: capacity}
	if id == "" {
		return Location{}, fmt.Errorf("location: empty id")
	}
	if !loc.Coordinates().Valid() {
		return Location{}, fmt.Errorf("location %s: coordinates out of range (%f, %f)", id, lat, lon)
	}
	if capacity < 0 {
		return Location{}, fmt.Errorf("location %s: negative capacity %d", id, capacity)
	}
	return loc, nil
}

func (l Location) Coordinates() Coordinates {
	return Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

func (l Location) IsShelter() bool {
	return l.Capacity > 0
}
