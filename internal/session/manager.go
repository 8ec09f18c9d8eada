// Package session owns the mutable state of one monitoring session: the
// previous combined score, the risk history ring, operator overrides, and
// the periodic refresh loop that recomputes fused risk. Each session owns
// its state exclusively; nothing here is process-wide.
package session

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/arjunkp/crowdshield/internal/alert"
	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/models"
	"github.com/arjunkp/crowdshield/internal/observability"
	"github.com/arjunkp/crowdshield/internal/repository"
	"github.com/arjunkp/crowdshield/internal/risk"
	"github.com/arjunkp/crowdshield/internal/routegraph"
	"github.com/arjunkp/crowdshield/internal/worker"
)

// Overrides are the operator-facing simulation controls: forced scenario
// flags plus numeric replacements for the weather and crowd signals. The
// scorers treat overridden values like any sensor reading.
type Overrides struct {
	ForceFlood   bool
	ForceSurge   bool
	RainfallMM   *float64
	WindKPH      *float64
	CrowdDensity *float64 // people per m2 at the reference point
}

type shelterRisk struct {
	id   string
	term float64
}

type scoreJob struct {
	loc     models.Location
	results chan<- shelterRisk
}

type Manager struct {
	cfg         *config.Config
	store       repository.Store
	disaster    *risk.DisasterScorer
	crowd       *risk.CrowdScorer
	fuser       *risk.Fuser
	broadcaster *alert.Broadcaster
	metrics     *observability.Metrics
	clock       clockwork.Clock
	pool        *worker.Pool[scoreJob]
	wg          sync.WaitGroup

	// refreshMu serializes whole refresh cycles so a ticker tick racing an
	// operator override cannot interleave the EMA read-compute-write or
	// double-broadcast a transition. Also guards stopped.
	refreshMu sync.Mutex
	stopped   bool

	mu           sync.Mutex
	prevCombined float64
	lastLevel    models.SeverityLevel
	history      *risk.History
	overrides    Overrides
	weather      models.WeatherSnapshot
	samples      []models.CrowdSample
	hazards      []models.HazardZone
	shelters     []models.Location
	graph        *routegraph.Graph
	riskLayer    map[string]float64
}

func NewManager(cfg *config.Config, store repository.Store, broadcaster *alert.Broadcaster, metrics *observability.Metrics, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		cfg:         cfg,
		store:       store,
		disaster:    risk.NewDisasterScorer(cfg.Risk),
		crowd:       risk.NewCrowdScorer(cfg.Risk),
		fuser:       risk.NewFuser(cfg.Risk),
		broadcaster: broadcaster,
		metrics:     metrics,
		clock:       clock,
		history:     risk.NewHistory(risk.DefaultHistoryCap),
		lastLevel:   models.SeverityLow,
		riskLayer:   map[string]float64{},
	}
}

// Start loads the location and hazard sets, builds the route graph, and
// begins the refresh loop. Missing data is never fatal: the engine degrades
// to empty collections and the routing layer falls back.
func (m *Manager) Start(ctx context.Context) {
	m.loadData(ctx)

	m.pool = worker.NewPool(m.cfg.Session.WorkerCount, m.cfg.Session.WorkerBuffer, m.processScoreJob)
	m.pool.Start(ctx)

	m.Refresh(ctx)

	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Manager) loadData(ctx context.Context) {
	if m.store == nil {
		return
	}

	shelters, err := m.store.ListShelters(ctx)
	if err != nil {
		slog.Error("failed to load shelters", "error", err)
	}
	hazards, err := m.store.ListHazards(ctx)
	if err != nil {
		slog.Error("failed to load hazard zones", "error", err)
	}

	m.mu.Lock()
	m.shelters = shelters
	m.hazards = hazards
	m.graph = routegraph.Build(shelters, nil, m.cfg.Routing)
	m.mu.Unlock()

	slog.Info("session data loaded", "shelters", len(shelters), "hazards", len(hazards))
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := m.clock.NewTicker(m.cfg.Session.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh loop shutting down")
			return
		case <-ticker.Chan():
			m.Refresh(ctx)
		}
	}
}

// Refresh runs one recompute cycle: score, fuse, record, broadcast. Cycles
// are serialized; a refresh arriving after Stop is a no-op.
func (m *Manager) Refresh(ctx context.Context) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	if m.stopped {
		return
	}

	start := m.clock.Now()

	m.mu.Lock()
	refPoint := models.Coordinates{Latitude: m.cfg.Session.RefLat, Longitude: m.cfg.Session.RefLon}
	hazards := m.hazards
	ov := m.overrides
	weather := m.weather
	samples := m.effectiveSamplesLocked(refPoint)
	prev := m.prevCombined
	lastLevel := m.lastLevel
	m.mu.Unlock()

	if ov.RainfallMM != nil {
		weather.RainfallMM = *ov.RainfallMM
	}
	if ov.WindKPH != nil {
		weather.WindKPH = *ov.WindKPH
	}

	disaster := m.disaster.Score(refPoint, hazards, weather)
	crowd := m.crowd.Score(refPoint, samples)
	fused := m.fuser.Fuse(disaster.Value, crowd.Value, prev, risk.Overrides{
		ForceFlood: ov.ForceFlood,
		ForceSurge: ov.ForceSurge,
	})

	entry := models.RiskHistoryEntry{
		Timestamp:     m.clock.Now(),
		DisasterScore: fused.DisasterScore,
		CrowdScore:    fused.CrowdScore,
		CombinedScore: fused.Combined,
		Severity:      fused.Level,
	}

	m.mu.Lock()
	m.prevCombined = fused.Combined
	m.lastLevel = fused.Level
	m.history.Append(entry)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.AddSnapshot(ctx, entry); err != nil {
			slog.Error("failed to persist risk snapshot", "error", err)
			if m.metrics != nil {
				m.metrics.RefreshErrors.Inc()
			}
		}
	}

	m.refreshRiskLayer()

	if fused.Level != lastLevel {
		change := alert.SeverityChange{
			From:     lastLevel,
			To:       fused.Level,
			Combined: fused.Combined,
			At:       entry.Timestamp,
		}
		slog.Info("severity transition", "from", change.From, "to", change.To, "combined", change.Combined)
		if m.broadcaster != nil {
			m.broadcaster.Broadcast(change)
		}
		if m.metrics != nil {
			m.metrics.Transitions.Inc()
		}
	}

	if m.metrics != nil {
		m.metrics.RefreshCycles.Inc()
		m.metrics.ObserveFusion(fused.DisasterScore, fused.CrowdScore, fused.Combined, fused.Level)
		m.metrics.RefreshSeconds.Observe(m.clock.Since(start).Seconds())
	}

	slog.Debug("refresh complete",
		"disaster", fused.DisasterScore,
		"crowd", fused.CrowdScore,
		"combined", fused.Combined,
		"severity", fused.Level)
}

// effectiveSamplesLocked resolves the crowd input: the density override
// synthesizes a single sample at the reference point, otherwise the last
// ingested batch is used. Caller holds m.mu.
func (m *Manager) effectiveSamplesLocked(refPoint models.Coordinates) []models.CrowdSample {
	if m.overrides.CrowdDensity == nil {
		return m.samples
	}
	r := m.cfg.Risk.CrowdSampleRadiusM
	people := *m.overrides.CrowdDensity * math.Pi * r * r
	return []models.CrowdSample{{
		ID:        "override",
		Latitude:  refPoint.Latitude,
		Longitude: refPoint.Longitude,
		People:    people,
	}}
}

// refreshRiskLayer recomputes per-shelter hazard exposure on the worker
// pool. The layer feeds the API's shelter listing so consumers can rank
// shelters by current exposure. Collection watches the pool's lifetime so a
// refresh racing shutdown returns with a partial layer instead of blocking
// on workers that have already exited.
func (m *Manager) refreshRiskLayer() {
	m.mu.Lock()
	shelters := m.shelters
	m.mu.Unlock()

	if len(shelters) == 0 || m.pool == nil {
		return
	}

	results := make(chan shelterRisk, len(shelters))
	pending := 0
	for _, s := range shelters {
		if !m.pool.Submit(scoreJob{loc: s, results: results}) {
			break
		}
		pending++
	}

	for i := 0; i < pending; i++ {
		select {
		case r := <-results:
			m.mu.Lock()
			m.riskLayer[r.id] = r.term
			m.mu.Unlock()
		case <-m.pool.Done():
			return
		}
	}
}

func (m *Manager) processScoreJob(_ context.Context, job scoreJob) error {
	m.mu.Lock()
	hazards := m.hazards
	m.mu.Unlock()

	term, _ := m.disaster.HazardTerm(job.loc.Coordinates(), hazards)
	job.results <- shelterRisk{id: job.loc.ID, term: term}
	return nil
}

// Stop waits for the refresh loop and the worker pool to drain. Call after
// cancelling the context passed to Start. Later Refresh calls are no-ops, so
// requests arriving during the shutdown window cannot touch a stopped pool.
func (m *Manager) Stop() {
	m.wg.Wait()

	m.refreshMu.Lock()
	m.stopped = true
	m.refreshMu.Unlock()

	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("session manager stopped")
}

func (m *Manager) SetOverrides(ov Overrides) {
	m.mu.Lock()
	m.overrides = ov
	m.mu.Unlock()
}

func (m *Manager) Overrides() Overrides {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overrides
}

// SetWeather replaces the weather snapshot consumed on the next refresh.
func (m *Manager) SetWeather(w models.WeatherSnapshot) {
	m.mu.Lock()
	m.weather = w
	m.mu.Unlock()
}

// SetCrowdSamples replaces the crowd batch wholesale, per the ingestion
// contract.
func (m *Manager) SetCrowdSamples(samples []models.CrowdSample) {
	m.mu.Lock()
	m.samples = samples
	m.mu.Unlock()
}

// Current returns the latest fused entry, or false before the first refresh.
func (m *Manager) Current() (models.RiskHistoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Latest()
}

// HistoryEntries returns the retained history in chronological order.
func (m *Manager) HistoryEntries() []models.RiskHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Entries()
}

func (m *Manager) Graph() *routegraph.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

func (m *Manager) Shelters() []models.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Location(nil), m.shelters...)
}

func (m *Manager) Hazards() []models.HazardZone {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.HazardZone(nil), m.hazards...)
}

// RiskLayer returns a copy of the per-shelter hazard exposure map.
func (m *Manager) RiskLayer() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.riskLayer))
	for k, v := range m.riskLayer {
		out[k] = v
	}
	return out
}
