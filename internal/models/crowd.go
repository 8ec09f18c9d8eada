package models

// CrowdSample is one crowd telemetry reading. Batches are replaced wholesale
// on each refresh; samples with out-of-range coordinates are discarded by the
// scorer rather than rejected as errors.
type CrowdSample struct {
	ID        string
	Latitude  float64
	Longitude float64
	People    float64
}

func (s CrowdSample) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}
