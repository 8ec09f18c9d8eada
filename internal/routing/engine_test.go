package routing

import (
	"testing"

	"github.com/arjunkp/crowdshield/internal/config"
	"github.com/arjunkp/crowdshield/internal/models"
	"github.com/arjunkp/crowdshield/internal/risk"
	"github.com/arjunkp/crowdshield/internal/routegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoutingConfig() config.RoutingConfig {
	return config.RoutingConfig{
		KNearest:          3,
		MaxEdgeKm:         5,
		WalkSpeedKmph:     5,
		RiskPenaltyFactor: 25,
		FallbackSegments:  8,
	}
}

func testEngine() *Engine {
	riskCfg := config.RiskConfig{
		RainfallMaxMM:        200,
		WindMaxKPH:           150,
		HazardTermWeight:     0.6,
		WeatherTermWeight:    0.4,
		HazardDecayRadiusKm:  0.2, // tight decay so clear edges stay clear
		CrowdSampleRadiusM:   20,
		CrowdCriticalDensity: 4,
		DisasterWeight:       0.5,
		CrowdWeight:          0.5,
		Smoothing:            0.65,
		ModerateThreshold:    0.25,
		HighThreshold:        0.5,
		CriticalThreshold:    0.75,
	}
	return NewEngine(testRoutingConfig(), risk.NewDisasterScorer(riskCfg))
}

var (
	nodeA   = models.Location{ID: "a", Latitude: 9.9300, Longitude: 76.2600}
	nodeB   = models.Location{ID: "b", Latitude: 9.9300, Longitude: 76.2800, Capacity: 100}
	detourC = models.Location{ID: "c", Latitude: 9.9800, Longitude: 76.2700}

	// Square hazard straddling the direct a-b midpoint.
	midHazard = models.HazardZone{
		Name:     "flooded crossing",
		Severity: 1,
		Polygon: []models.Coordinates{
			{Latitude: 9.925, Longitude: 76.265},
			{Latitude: 9.925, Longitude: 76.275},
			{Latitude: 9.935, Longitude: 76.275},
			{Latitude: 9.935, Longitude: 76.265},
		},
	}
)

func detourGraph(t *testing.T) *routegraph.Graph {
	t.Helper()
	g := routegraph.Build(
		[]models.Location{nodeA, nodeB, detourC},
		[]routegraph.Segment{
			{From: "a", To: "b"}, // short, crosses the hazard
			{From: "a", To: "c"}, // long, clear
			{From: "c", To: "b"},
		},
		testRoutingConfig(),
	)
	require.False(t, g.Empty())
	return g
}

func TestRoute_ShortestPrefersDirectEdge(t *testing.T) {
	e := testEngine()
	res := e.Route(detourGraph(t), Request{
		Origin:      nodeA,
		Destination: &nodeB,
		Mode:        models.RouteShortest,
		Hazards:     []models.HazardZone{midHazard},
	})

	require.False(t, res.IsFallback)
	require.Len(t, res.Path, 2)
	assert.Equal(t, "a", res.Path[0].ID)
	assert.Equal(t, "b", res.Path[1].ID)
}

func TestRoute_SafestAvoidsHazardEdge(t *testing.T) {
	e := testEngine()
	res := e.Route(detourGraph(t), Request{
		Origin:      nodeA,
		Destination: &nodeB,
		Mode:        models.RouteSafest,
		Hazards:     []models.HazardZone{midHazard},
	})

	require.False(t, res.IsFallback)
	require.Len(t, res.Path, 3, "safest should detour through c")
	assert.Equal(t, []string{"a", "c", "b"}, []string{res.Path[0].ID, res.Path[1].ID, res.Path[2].ID})
	assert.Greater(t, res.DistanceKm, 0.0)
}

func TestRoute_SafestWithoutHazardsMatchesShortest(t *testing.T) {
	e := testEngine()
	g := detourGraph(t)

	safest := e.Route(g, Request{Origin: nodeA, Destination: &nodeB, Mode: models.RouteSafest})
	shortest := e.Route(g, Request{Origin: nodeA, Destination: &nodeB, Mode: models.RouteShortest})

	require.Len(t, safest.Path, len(shortest.Path))
	for i := range safest.Path {
		assert.Equal(t, shortest.Path[i].ID, safest.Path[i].ID)
	}
}

func TestRoute_SafestTakesRiskyEdgeWhenOnlyPath(t *testing.T) {
	e := testEngine()
	g := routegraph.Build(
		[]models.Location{nodeA, nodeB},
		[]routegraph.Segment{{From: "a", To: "b"}},
		testRoutingConfig(),
	)

	res := e.Route(g, Request{
		Origin:      nodeA,
		Destination: &nodeB,
		Mode:        models.RouteSafest,
		Hazards:     []models.HazardZone{midHazard},
	})

	require.False(t, res.IsFallback, "a risky path is still a path")
	assert.Len(t, res.Path, 2)
	assert.Greater(t, res.TotalCost, res.DistanceKm, "penalty inflates cost above base distance")
}

func TestRoute_Deterministic(t *testing.T) {
	e := testEngine()
	g := detourGraph(t)
	req := Request{Origin: nodeA, Destination: &nodeB, Mode: models.RouteSafest, Hazards: []models.HazardZone{midHazard}}

	first := e.Route(g, req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Route(g, req), "run %d", i)
	}
}

func TestRoute_FastestUsesTravelTime(t *testing.T) {
	e := testEngine()
	res := e.Route(detourGraph(t), Request{Origin: nodeA, Destination: &nodeB, Mode: models.RouteFastest})

	require.False(t, res.IsFallback)
	assert.Equal(t, models.RouteFastest, res.Mode)
	// At constant speed fastest equals shortest: direct edge.
	assert.Len(t, res.Path, 2)
	assert.Greater(t, res.ETAMinutes, 0.0)
}

func TestRoute_NearestShelterSelection(t *testing.T) {
	e := testEngine()

	origin := models.Location{ID: "origin", Latitude: 9.9300, Longitude: 76.2600}
	near := models.Location{ID: "shelter-near", Latitude: 9.9330, Longitude: 76.2600, Capacity: 50}
	mid := models.Location{ID: "shelter-mid", Latitude: 9.9400, Longitude: 76.2600, Capacity: 50}
	far := models.Location{ID: "shelter-far", Latitude: 9.9550, Longitude: 76.2600, Capacity: 50}

	g := routegraph.Build(
		[]models.Location{origin, near, mid, far},
		[]routegraph.Segment{
			{From: "origin", To: "shelter-near"},
			{From: "origin", To: "shelter-mid"},
			{From: "origin", To: "shelter-far"},
		},
		testRoutingConfig(),
	)

	res := e.Route(g, Request{Origin: origin, Mode: models.RouteShortest})
	require.False(t, res.IsFallback)
	assert.Equal(t, "shelter-near", res.Path[len(res.Path)-1].ID)

	// Must match an explicit single-target run to the same shelter.
	direct := e.Route(g, Request{Origin: origin, Destination: &near, Mode: models.RouteShortest})
	assert.Equal(t, direct.TotalCost, res.TotalCost)
}

func TestRoute_FallbackOnEmptyGraph(t *testing.T) {
	e := testEngine()
	g := routegraph.Build(nil, nil, testRoutingConfig())

	origin := models.Location{ID: "origin", Latitude: 9.93, Longitude: 76.27}
	dest := models.Location{ID: "dest", Latitude: 9.94, Longitude: 76.28}

	res := e.Route(g, Request{Origin: origin, Destination: &dest, Mode: models.RouteShortest})

	require.True(t, res.IsFallback)
	require.NotEmpty(t, res.Path)
	assert.Equal(t, 9.93, res.Path[0].Latitude)
	assert.Equal(t, 76.27, res.Path[0].Longitude)
	assert.Equal(t, 9.94, res.Path[len(res.Path)-1].Latitude)
	assert.Equal(t, 76.28, res.Path[len(res.Path)-1].Longitude)
	assert.Len(t, res.Path, 9, "8 segments => 9 points")
	assert.NotEmpty(t, res.Reason)
}

func TestRoute_FallbackOnUnknownOrigin(t *testing.T) {
	e := testEngine()
	g := detourGraph(t)

	stranger := models.Location{ID: "stranger", Latitude: 9.95, Longitude: 76.25}
	res := e.Route(g, Request{Origin: stranger, Destination: &nodeB})

	assert.True(t, res.IsFallback)
	assert.Contains(t, res.Reason, "origin")
}

func TestRoute_FallbackOnDisconnectedDestination(t *testing.T) {
	e := testEngine()
	island := models.Location{ID: "island", Latitude: 9.9700, Longitude: 76.2000}
	g := routegraph.Build(
		[]models.Location{nodeA, nodeB, island},
		[]routegraph.Segment{{From: "a", To: "b"}},
		testRoutingConfig(),
	)

	res := e.Route(g, Request{Origin: nodeA, Destination: &island})
	require.True(t, res.IsFallback)
	assert.Equal(t, "a", res.Path[0].ID)
	assert.Equal(t, "island", res.Path[len(res.Path)-1].ID)
}

func TestRoute_FallbackToNearestKnownShelter(t *testing.T) {
	e := testEngine()
	g := routegraph.Build(nil, nil, testRoutingConfig())

	origin := models.Location{ID: "origin", Latitude: 9.93, Longitude: 76.27}
	shelters := []models.Location{
		{ID: "far-shelter", Latitude: 9.99, Longitude: 76.27, Capacity: 10},
		{ID: "near-shelter", Latitude: 9.94, Longitude: 76.27, Capacity: 10},
	}

	res := e.Route(g, Request{Origin: origin, Shelters: shelters})
	require.True(t, res.IsFallback)
	assert.Equal(t, "near-shelter", res.Path[len(res.Path)-1].ID)
}

func TestRoute_NoDestinationNoShelters(t *testing.T) {
	e := testEngine()
	g := routegraph.Build(nil, nil, testRoutingConfig())

	origin := models.Location{ID: "origin", Latitude: 9.93, Longitude: 76.27}
	res := e.Route(g, Request{Origin: origin})

	require.True(t, res.IsFallback)
	require.Len(t, res.Path, 1, "still something to draw")
	assert.Equal(t, "origin", res.Path[0].ID)
}

func TestRoute_DefaultsToShortestMode(t *testing.T) {
	e := testEngine()
	res := e.Route(detourGraph(t), Request{Origin: nodeA, Destination: &nodeB})
	assert.Equal(t, models.RouteShortest, res.Mode)
}
