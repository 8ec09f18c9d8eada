package risk

import (
	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/models"
)

// Overrides are operator-driven simulation inputs. Forced flags push the
// corresponding score to 1.0 before fusion; the scorers treat them
// identically to sensor-derived values.
type Overrides struct {
	ForceFlood bool
	ForceSurge bool
}

// FusionResult is the outcome of one fuse call. Combined is the smoothed
// score the severity level is derived from; Raw is the instantaneous
// weighted average before smoothing.
type FusionResult struct {
	Combined      float64
	Raw           float64
	DisasterScore float64
	CrowdScore    float64
	Level         models.SeverityLevel
}

type Fuser struct {
	cfg config.RiskConfig
}

func NewFuser(cfg config.RiskConfig) *Fuser {
	return &Fuser{cfg: cfg}
}

// Fuse combines disaster and crowd scores into one severity signal.
// prevCombined is the previous smoothed score, threaded through by the
// caller: the reported score is an exponential moving average so severity
// badges do not flap on noisy input. The smoothed score is what feeds the
// threshold comparison.
func (f *Fuser) Fuse(disaster, crowd float64, prevCombined float64, ov Overrides) FusionResult {
	if ov.ForceFlood {
		disaster = 1.0
	}
	if ov.ForceSurge {
		crowd = 1.0
	}
	disaster = clamp01(disaster)
	crowd = clamp01(crowd)

	wSum := f.cfg.DisasterWeight + f.cfg.CrowdWeight
	raw := (f.cfg.DisasterWeight*disaster + f.cfg.CrowdWeight*crowd) / wSum

	alpha := f.cfg.Smoothing
	combined := clamp01(alpha*raw + (1-alpha)*clamp01(prevCombined))

	return FusionResult{
		Combined:      combined,
		Raw:           raw,
		DisasterScore: disaster,
		CrowdScore:    crowd,
		Level:         f.SeverityFor(combined),
	}
}

// SeverityFor is a pure threshold function of the combined score. No
// hysteresis band beyond the smoothing applied in Fuse.
func (f *Fuser) SeverityFor(combined float64) models.SeverityLevel {
	switch {
	case combined >= f.cfg.CriticalThreshold:
		return models.SeverityCritical
	case combined >= f.cfg.HighThreshold:
		return models.SeverityHigh
	case combined >= f.cfg.ModerateThreshold:
		return models.SeverityModerate
	default:
		return models.SeverityLow
	}
}
