// Package routing computes shortest, fastest and safest paths over a route
// graph, degrading to a deterministic straight-line fallback whenever the
// graph cannot answer. Route never fails hard: the consuming UI must always
// have something to draw.
package routing

import (
	"fmt"
	"math"

	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/geo"
	"github.com/arjunkp/crowdshield/internal/models"
	"github.com/arjunkp/crowdshield/internal/risk"
	"github.com/arjunkp/crowdshield/internal/routegraph"
)

// Request describes one routing call. Destination nil means "nearest
// reachable shelter". Hazards are the current hazard state used for
// safest-mode penalties and are read-only.
type Request struct {
	Origin      models.Location
	Destination *models.Location
	Mode        models.RouteMode
	Hazards     []models.HazardZone
	Shelters    []models.Location
}

type Engine struct {
	cfg    config.RoutingConfig
	scorer *risk.DisasterScorer
}

func NewEngine(cfg config.RoutingConfig, scorer *risk.DisasterScorer) *Engine {
	return &Engine{cfg: cfg, scorer: scorer}
}

// Route computes a path for the request over g. Outcomes that would be
// errors elsewhere (empty graph, unknown endpoints, no path) resolve to a
// fallback result with IsFallback set and a diagnostic reason.
func (e *Engine) Route(g *routegraph.Graph, req Request) models.RouteResult {
	mode := req.Mode
	if mode == "" {
		mode = models.RouteShortest
	}

	if g == nil || g.Empty() {
		return e.fallback(req, mode, "route graph unavailable")
	}
	if !g.Has(req.Origin.ID) {
		return e.fallback(req, mode, fmt.Sprintf("origin %s not in graph", req.Origin.ID))
	}
	if req.Destination != nil && !g.Has(req.Destination.ID) {
		return e.fallback(req, mode, fmt.Sprintf("destination %s not in graph", req.Destination.ID))
	}

	res := dijkstra(g, req.Origin.ID, e.weightFor(g, mode, req.Hazards))

	target, ok := e.pickTarget(g, req, res)
	if !ok {
		if req.Destination != nil {
			return e.fallback(req, mode, fmt.Sprintf("no path from %s to %s", req.Origin.ID, req.Destination.ID))
		}
		return e.fallback(req, mode, "no reachable shelter")
	}

	ids := res.pathTo(req.Origin.ID, target)
	if len(ids) == 0 {
		return e.fallback(req, mode, "path reconstruction failed")
	}

	path := make([]models.Location, 0, len(ids))
	distance := 0.0
	for i, id := range ids {
		loc, _ := g.Node(id)
		path = append(path, loc)
		if i > 0 {
			distance += geo.HaversineKm(path[i-1].Coordinates(), loc.Coordinates())
		}
	}

	return models.RouteResult{
		Path:       path,
		Mode:       mode,
		TotalCost:  res.dist[target],
		DistanceKm: distance,
		ETAMinutes: distance / e.cfg.WalkSpeedKmph * 60,
		IsFallback: false,
	}
}

// weightFor returns the edge weight function for a mode. Safest multiplies
// base distance by the current hazard penalty at the edge midpoint, scaled
// by the configured factor: large enough that clear detours win, finite so
// a risky-only path still resolves.
func (e *Engine) weightFor(g *routegraph.Graph, mode models.RouteMode, hazards []models.HazardZone) weightFunc {
	switch mode {
	case models.RouteFastest:
		return func(edge routegraph.Edge) float64 { return edge.TravelTimeMin }
	case models.RouteSafest:
		return func(edge routegraph.Edge) float64 {
			penalty, _ := e.scorer.HazardTerm(g.Midpoint(edge), hazards)
			return edge.DistanceKm * (1 + e.cfg.RiskPenaltyFactor*penalty)
		}
	default:
		return func(edge routegraph.Edge) float64 { return edge.DistanceKm }
	}
}

// pickTarget resolves the search target: the requested destination, or the
// reachable shelter with minimum cost (ties: fewer hops, then lexicographic
// ID).
func (e *Engine) pickTarget(g *routegraph.Graph, req Request, res searchResult) (string, bool) {
	if req.Destination != nil {
		_, ok := res.dist[req.Destination.ID]
		return req.Destination.ID, ok
	}

	best := ""
	bestCost := math.Inf(1)
	for _, shelter := range g.Shelters() {
		if shelter.ID == req.Origin.ID {
			continue
		}
		cost, ok := res.dist[shelter.ID]
		if !ok {
			continue
		}
		switch {
		case cost < bestCost-costEpsilon:
		case math.Abs(cost-bestCost) <= costEpsilon &&
			(res.hops[shelter.ID] < res.hops[best] ||
				(res.hops[shelter.ID] == res.hops[best] && shelter.ID < best)):
		default:
			continue
		}
		best = shelter.ID
		bestCost = cost
	}
	return best, best != ""
}

// fallback produces the straight-line grid route: a fixed number of
// interpolated points between origin and the destination or nearest known
// shelter. Not risk-validated; consumers must render it distinctly.
func (e *Engine) fallback(req Request, mode models.RouteMode, reason string) models.RouteResult {
	target, ok := e.fallbackTarget(req)
	if !ok {
		// Nothing to head toward; a single-point path still gives the
		// caller something to draw at the origin.
		return models.RouteResult{
			Path:       []models.Location{req.Origin},
			Mode:       mode,
			IsFallback: true,
			Reason:     reason + "; no destination or shelter known",
		}
	}

	points := geo.Interpolate(req.Origin.Coordinates(), target.Coordinates(), e.cfg.FallbackSegments)
	path := make([]models.Location, len(points))
	path[0] = req.Origin
	path[len(path)-1] = target
	for i := 1; i < len(points)-1; i++ {
		path[i] = models.Location{
			ID:        fmt.Sprintf("wp-%d", i),
			Latitude:  points[i].Latitude,
			Longitude: points[i].Longitude,
		}
	}

	distance := geo.HaversineKm(req.Origin.Coordinates(), target.Coordinates())
	return models.RouteResult{
		Path:       path,
		Mode:       mode,
		TotalCost:  distance,
		DistanceKm: distance,
		ETAMinutes: distance / e.cfg.WalkSpeedKmph * 60,
		IsFallback: true,
		Reason:     reason,
	}
}

// fallbackTarget picks where a fallback route should head: the requested
// destination when given, else the nearest known shelter by straight-line
// distance (ties by ID).
func (e *Engine) fallbackTarget(req Request) (models.Location, bool) {
	if req.Destination != nil {
		return *req.Destination, true
	}
	best := models.Location{}
	bestDist := math.Inf(1)
	found := false
	for _, s := range req.Shelters {
		if !s.IsShelter() || s.ID == req.Origin.ID || !s.Coordinates().Valid() {
			continue
		}
		d := geo.HaversineKm(req.Origin.Coordinates(), s.Coordinates())
		if d < bestDist || (d == bestDist && s.ID < best.ID) {
			best = s
			bestDist = d
			found = true
		}
	}
	return best, found
}
