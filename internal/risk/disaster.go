// Package risk implements the scoring core: disaster and crowd risk scorers,
// the fusion engine with temporal smoothing, and the bounded risk history.
// Scorers are deterministic and carry no state between calls; session state
// (previous combined score, history) is owned by the caller.
package risk

import (
	"fmt"
	"math"

	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/geo"
	"github.com/arjunkp/crowdshield/internal/models"
)

type DisasterScorer struct {
	cfg config.RiskConfig
}

func NewDisasterScorer(cfg config.RiskConfig) *DisasterScorer {
	return &DisasterScorer{cfg: cfg}
}

// Score combines hazard proximity and weather magnitude into a disaster risk
// score in [0,1]. Missing hazard data degrades to a zero hazard term; a zero
// weather snapshot yields a zero weather term.
func (s *DisasterScorer) Score(at models.Coordinates, hazards []models.HazardZone, weather models.WeatherSnapshot) models.RiskScore {
	hazard, hazardDriver := s.HazardTerm(at, hazards)
	wx, wxDriver := s.weatherTerm(weather)

	value := clamp01(s.cfg.HazardTermWeight*hazard + s.cfg.WeatherTermWeight*wx)

	return models.RiskScore{
		Value:     value,
		Drivers:   []string{hazardDriver, wxDriver},
		Timestamp: clock.Now(),
	}
}

// HazardTerm returns the hazard-proximity contribution in [0,1]: the
// severity-weighted containment signal, decaying linearly with distance
// outside any polygon up to the configured radius. Exported because the
// routing engine uses the same signal as its edge risk penalty.
func (s *DisasterScorer) HazardTerm(at models.Coordinates, hazards []models.HazardZone) (float64, string) {
	if len(hazards) == 0 {
		return 0, "no hazard zones"
	}

	best := 0.0
	bestName := ""
	for _, h := range hazards {
		proximity := 1.0
		if d := geo.DistanceToPolygonKm(at, h.Polygon); d > 0 {
			proximity = 1 - d/s.cfg.HazardDecayRadiusKm
			if proximity <= 0 {
				continue
			}
		}
		term := clamp01(proximity * h.Severity)
		if term > best {
			best = term
			bestName = h.Name
		}
	}

	if bestName == "" {
		return 0, "outside all hazard zones"
	}
	return best, fmt.Sprintf("hazard proximity: %s (%.2f)", bestName, best)
}

func (s *DisasterScorer) weatherTerm(w models.WeatherSnapshot) (float64, string) {
	rain := clamp01(w.RainfallMM / s.cfg.RainfallMaxMM)
	wind := clamp01(w.WindKPH / s.cfg.WindMaxKPH)
	// Rainfall dominates flood-driven scenarios, mirroring the threshold
	// split used by the source data.
	term := clamp01(0.6*rain + 0.4*wind)
	return term, fmt.Sprintf("weather: rainfall %.1f mm, wind %.1f kph", w.RainfallMM, w.WindKPH)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
