package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arjunkp/crowdshield/internal/models"
)

// Metrics holds the Prometheus instruments for the risk engine.
type Metrics struct {
	RefreshCycles  prometheus.Counter
	RefreshErrors  prometheus.Counter
	CombinedScore  prometheus.Gauge
	DisasterScore  prometheus.Gauge
	CrowdScore     prometheus.Gauge
	SeverityLevel  prometheus.Gauge // rank of the current level: 0=LOW .. 3=CRITICAL
	Transitions    prometheus.Counter
	RouteRequests  *prometheus.CounterVec // labels: mode, fallback={true,false}
	RefreshSeconds prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crowdshield",
			Name:      "refresh_cycles_total",
			Help:      "Total risk refresh cycles executed.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crowdshield",
			Name:      "refresh_errors_total",
			Help:      "Refresh cycles that failed to load signal data.",
		}),
		CombinedScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdshield",
			Name:      "combined_risk_score",
			Help:      "Current smoothed combined risk score in [0,1].",
		}),
		DisasterScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdshield",
			Name:      "disaster_risk_score",
			Help:      "Current disaster risk score in [0,1].",
		}),
		CrowdScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdshield",
			Name:      "crowd_risk_score",
			Help:      "Current crowd risk score in [0,1].",
		}),
		SeverityLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crowdshield",
			Name:      "severity_level",
			Help:      "Current severity level rank (0=LOW, 3=CRITICAL).",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crowdshield",
			Name:      "severity_transitions_total",
			Help:      "Severity level transitions observed.",
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crowdshield",
			Name:      "route_requests_total",
			Help:      "Route computations by mode and fallback outcome.",
		}, []string{"mode", "fallback"}),
		RefreshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crowdshield",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one full risk refresh cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	prometheus.MustRegister(
		m.RefreshCycles,
		m.RefreshErrors,
		m.CombinedScore,
		m.DisasterScore,
		m.CrowdScore,
		m.SeverityLevel,
		m.Transitions,
		m.RouteRequests,
		m.RefreshSeconds,
	)

	return m
}

// ObserveFusion records the outcome of one fuse call.
func (m *Metrics) ObserveFusion(disaster, crowd, combined float64, level models.SeverityLevel) {
	m.DisasterScore.Set(disaster)
	m.CrowdScore.Set(crowd)
	m.CombinedScore.Set(combined)
	m.SeverityLevel.Set(float64(level.Rank()))
}
