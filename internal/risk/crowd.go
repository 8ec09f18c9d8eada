package risk

import (
	"fmt"
	"math"

	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/geo"
	"github.com/arjunkp/crowdshield/internal/models"
)

type CrowdScorer struct {
	cfg config.RiskConfig
}

func NewCrowdScorer(cfg config.RiskConfig) *CrowdScorer {
	return &CrowdScorer{cfg: cfg}
}

// Score maps crowd density around a point to [0,1]. Samples with
// out-of-range coordinates or negative counts are discarded, not errors;
// an empty batch scores zero.
func (s *CrowdScorer) Score(at models.Coordinates, samples []models.CrowdSample) models.RiskScore {
	radiusKm := s.cfg.CrowdSampleRadiusM / 1000

	var people float64
	counted := 0
	for _, sample := range samples {
		if !sample.Coordinates().Valid() || sample.People < 0 {
			continue
		}
		if geo.HaversineKm(at, sample.Coordinates()) <= radiusKm {
			people += sample.People
			counted++
		}
	}

	if counted == 0 {
		return models.RiskScore{
			Value:     0,
			Drivers:   []string{"no crowd data in range"},
			Timestamp: clock.Now(),
		}
	}

	areaM2 := math.Pi * s.cfg.CrowdSampleRadiusM * s.cfg.CrowdSampleRadiusM
	density := people / areaM2
	value := s.densityCurve(density)

	return models.RiskScore{
		Value: value,
		Drivers: []string{
			fmt.Sprintf("density: %.2f ppl/m2 (%d samples, %.0f people)", density, counted, people),
		},
		Timestamp: clock.Now(),
	}
}

// densityCurve is a monotone saturating map: near 0 at low density, ~0.95 at
// the critical density, asymptotically 1 above it.
func (s *CrowdScorer) densityCurve(density float64) float64 {
	if density <= 0 {
		return 0
	}
	return clamp01(1 - math.Exp(-3*density/s.cfg.CrowdCriticalDensity))
}
