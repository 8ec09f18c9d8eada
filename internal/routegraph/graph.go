// Package routegraph builds the weighted graph over shelters and waypoints
// that the routing engine searches. Edges store base distance and travel
// time only; risk penalties change between refresh cycles and are computed
// at query time from current hazard state.
package routegraph

import (
	"sort"

	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/geo"
	"github.com/arjunkp/crowdshield/internal/models"
)

// Edge is a traversable segment between two named locations.
type Edge struct {
	From          string
	To            string
	DistanceKm    float64
	TravelTimeMin float64
}

// Segment is an externally supplied candidate edge (a known road or path).
type Segment struct {
	From string
	To   string
}

// Graph is an immutable adjacency representation. Safe for concurrent
// route calls: routing never mutates it.
type Graph struct {
	nodes map[string]models.Location
	adj   map[string][]Edge
}

// Build constructs the graph from a location set. When explicit segments are
// supplied they define the edge set; otherwise each location is connected to
// its k nearest neighbours within the configured maximum distance. Locations
// with invalid coordinates are rejected at this boundary so routing math
// never sees them. Fewer than 2 usable locations yields an explicitly empty
// graph; the routing engine detects that and falls back.
func Build(locations []models.Location, segments []Segment, cfg config.RoutingConfig) *Graph {
	g := &Graph{
		nodes: make(map[string]models.Location),
		adj:   make(map[string][]Edge),
	}

	for _, loc := range locations {
		if loc.ID == "" || !loc.Coordinates().Valid() {
			continue
		}
		g.nodes[loc.ID] = loc
	}
	if len(g.nodes) < 2 {
		return &Graph{nodes: map[string]models.Location{}, adj: map[string][]Edge{}}
	}

	if len(segments) > 0 {
		for _, s := range segments {
			g.addEdge(s.From, s.To, cfg.WalkSpeedKmph)
		}
	} else {
		g.connectNearest(cfg)
	}

	return g
}

// connectNearest links every node to its k nearest neighbours within
// MaxEdgeKm. Undirected: a neighbour link is added in both directions, which
// keeps the graph connected whenever the geometry allows.
func (g *Graph) connectNearest(cfg config.RoutingConfig) {
	ids := g.sortedIDs()
	for _, id := range ids {
		from := g.nodes[id]
		type candidate struct {
			id   string
			dist float64
		}
		var cands []candidate
		for _, other := range ids {
			if other == id {
				continue
			}
			d := geo.HaversineKm(from.Coordinates(), g.nodes[other].Coordinates())
			if d <= cfg.MaxEdgeKm {
				cands = append(cands, candidate{id: other, dist: d})
			}
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].dist != cands[j].dist {
				return cands[i].dist < cands[j].dist
			}
			return cands[i].id < cands[j].id
		})
		if len(cands) > cfg.KNearest {
			cands = cands[:cfg.KNearest]
		}
		for _, c := range cands {
			g.addEdge(id, c.id, cfg.WalkSpeedKmph)
		}
	}
}

// addEdge inserts an undirected edge unless it already exists or the
// endpoints are unknown.
func (g *Graph) addEdge(from, to string, speedKmph float64) {
	a, okA := g.nodes[from]
	b, okB := g.nodes[to]
	if !okA || !okB || from == to || g.hasEdge(from, to) {
		return
	}
	d := geo.HaversineKm(a.Coordinates(), b.Coordinates())
	tt := d / speedKmph * 60
	g.adj[from] = append(g.adj[from], Edge{From: from, To: to, DistanceKm: d, TravelTimeMin: tt})
	g.adj[to] = append(g.adj[to], Edge{From: to, To: from, DistanceKm: d, TravelTimeMin: tt})
}

func (g *Graph) hasEdge(from, to string) bool {
	for _, e := range g.adj[from] {
		if e.To == to {
			return true
		}
	}
	return false
}

func (g *Graph) Empty() bool {
	return len(g.nodes) == 0
}

func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Node(id string) (models.Location, bool) {
	loc, ok := g.nodes[id]
	return loc, ok
}

// Neighbors returns outgoing edges in deterministic (lexicographic) order.
func (g *Graph) Neighbors(id string) []Edge {
	edges := append([]Edge(nil), g.adj[id]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	return edges
}

// Shelters returns the shelter nodes sorted by ID.
func (g *Graph) Shelters() []models.Location {
	var out []models.Location
	for _, id := range g.sortedIDs() {
		if loc := g.nodes[id]; loc.IsShelter() {
			out = append(out, loc)
		}
	}
	return out
}

// Midpoint returns the midpoint of an edge for hazard intersection tests.
func (g *Graph) Midpoint(e Edge) models.Coordinates {
	return geo.Midpoint(g.nodes[e.From].Coordinates(), g.nodes[e.To].Coordinates())
}

func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	total := 0
	for _, edges := range g.adj {
		total += len(edges)
	}
	return total / 2
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
