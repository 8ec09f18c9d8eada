package api

import (
	"github.com/arjunkp/crowdshield/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// routeToGeoJSON renders a route as a single LineString feature. Fallback
// routes carry is_fallback so the map layer can style them distinctly.
func routeToGeoJSON(r models.RouteResult) FeatureCollection {
	coords := make([][]float64, 0, len(r.Path))
	for _, loc := range r.Path {
		coords = append(coords, []float64{loc.Longitude, loc.Latitude})
	}

	props := map[string]any{
		"mode":        string(r.Mode),
		"total_cost":  r.TotalCost,
		"distance_km": r.DistanceKm,
		"eta_minutes": r.ETAMinutes,
		"is_fallback": r.IsFallback,
	}
	if r.Reason != "" {
		props["reason"] = r.Reason
	}

	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: props,
		}},
	}
}

// sheltersToGeoJSON renders the shelter set as point features, annotated with
// the current per-shelter hazard exposure when available.
func sheltersToGeoJSON(shelters []models.Location, riskLayer map[string]float64) FeatureCollection {
	features := make([]Feature, 0, len(shelters))
	for _, s := range shelters {
		props := map[string]any{
			"id":       s.ID,
			"capacity": s.Capacity,
		}
		if exposure, ok := riskLayer[s.ID]; ok {
			props["hazard_exposure"] = exposure
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{s.Longitude, s.Latitude},
			},
			Properties: props,
		})
	}
	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
