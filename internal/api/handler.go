package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arjunkp/crowdshield/internal/models"
	"github.com/arjunkp/crowdshield/internal/observability"
	"github.com/arjunkp/crowdshield/internal/repository"
	"github.com/arjunkp/crowdshield/internal/routing"
	"github.com/arjunkp/crowdshield/internal/session"
)

type Handler struct {
	manager *session.Manager
	engine  *routing.Engine
	repo    repository.SnapshotRepository
	metrics *observability.Metrics
}

func NewHandler(manager *session.Manager, engine *routing.Engine, repo repository.SnapshotRepository, metrics *observability.Metrics) *Handler {
	return &Handler{
		manager: manager,
		engine:  engine,
		repo:    repo,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/risk", h.getRisk)
	r.GET("/api/route", h.getRoute)
	r.GET("/api/history", h.getHistory)
	r.GET("/api/shelters", h.getShelters)
	r.POST("/api/overrides", h.setOverrides)
	r.POST("/api/crowd", h.ingestCrowd)
	r.GET("/health", h.health)
}

func (h *Handler) getRisk(c *gin.Context) {
	entry, ok := h.manager.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no risk computed yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":      entry.Timestamp,
		"disaster_score": entry.DisasterScore,
		"crowd_score":    entry.CrowdScore,
		"combined_score": entry.CombinedScore,
		"severity":       entry.Severity,
		"shelter_risk":   h.manager.RiskLayer(),
	})
}

func (h *Handler) getRoute(c *gin.Context) {
	mode := models.RouteShortest
	if m := c.Query("mode"); m != "" {
		parsed, ok := models.ParseRouteMode(m)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "mode must be shortest, fastest or safest",
			})
			return
		}
		mode = parsed
	}

	origin, err := h.resolveLocation(c, "origin", "origin_lat", "origin_lon")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := routing.Request{
		Origin:   origin,
		Mode:     mode,
		Hazards:  h.manager.Hazards(),
		Shelters: h.manager.Shelters(),
	}
	if d := c.Query("destination"); d != "" {
		dest, ok := h.lookupLocation(d)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown destination %q", d)})
			return
		}
		req.Destination = &dest
	}

	result := h.engine.Route(h.manager.Graph(), req)

	if h.metrics != nil {
		h.metrics.RouteRequests.WithLabelValues(
			string(result.Mode), strconv.FormatBool(result.IsFallback)).Inc()
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, routeToGeoJSON(result))
}

// resolveLocation accepts either a known location ID or raw coordinates. An
// ID that resolves to neither a graph node nor a known shelter is rejected:
// without coordinates there is nothing sane to route or fall back from.
func (h *Handler) resolveLocation(c *gin.Context, idKey, latKey, lonKey string) (models.Location, error) {
	if id := c.Query(idKey); id != "" {
		if loc, ok := h.lookupLocation(id); ok {
			return loc, nil
		}
		return models.Location{}, fmt.Errorf("unknown location %q", id)
	}

	lat, errLat := strconv.ParseFloat(c.Query(latKey), 64)
	lon, errLon := strconv.ParseFloat(c.Query(lonKey), 64)
	if errLat != nil || errLon != nil {
		return models.Location{}, fmt.Errorf("provide %s or %s and %s", idKey, latKey, lonKey)
	}
	return models.NewLocation("origin", lat, lon, 0)
}

func (h *Handler) lookupLocation(id string) (models.Location, bool) {
	if g := h.manager.Graph(); g != nil {
		if loc, ok := g.Node(id); ok {
			return loc, true
		}
	}
	for _, s := range h.manager.Shelters() {
		if s.ID == id {
			return s, true
		}
	}
	return models.Location{}, false
}

func (h *Handler) getHistory(c *gin.Context) {
	// persisted=true reads beyond the in-memory ring.
	if c.Query("persisted") == "true" && h.repo != nil {
		filter := repository.Filter{Limit: 100}
		if l := c.Query("limit"); l != "" {
			if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 1000 {
				filter.Limit = lim
			}
		}
		if s := c.Query("since"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				filter.Since = &t
			}
		}
		entries, err := h.repo.ListSnapshots(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to fetch history",
			})
			return
		}
		c.JSON(http.StatusOK, historyResponse(entries))
		return
	}

	c.JSON(http.StatusOK, historyResponse(h.manager.HistoryEntries()))
}

func historyResponse(entries []models.RiskHistoryEntry) gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"timestamp":      e.Timestamp,
			"disaster_score": e.DisasterScore,
			"crowd_score":    e.CrowdScore,
			"combined_score": e.CombinedScore,
			"severity":       e.Severity,
		})
	}
	return gin.H{"entries": out, "count": len(out)}
}

func (h *Handler) getShelters(c *gin.Context) {
	fc := sheltersToGeoJSON(h.manager.Shelters(), h.manager.RiskLayer())
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

type overridesRequest struct {
	ForceFlood   bool     `json:"force_flood"`
	ForceSurge   bool     `json:"force_surge"`
	RainfallMM   *float64 `json:"rainfall_mm"`
	WindKPH      *float64 `json:"wind_kph"`
	CrowdDensity *float64 `json:"crowd_density"`
}

func (h *Handler) setOverrides(c *gin.Context) {
	var req overridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid overrides payload"})
		return
	}
	if req.CrowdDensity != nil && *req.CrowdDensity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crowd_density must not be negative"})
		return
	}
	if (req.RainfallMM != nil && *req.RainfallMM < 0) || (req.WindKPH != nil && *req.WindKPH < 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weather overrides must not be negative"})
		return
	}

	h.manager.SetOverrides(session.Overrides{
		ForceFlood:   req.ForceFlood,
		ForceSurge:   req.ForceSurge,
		RainfallMM:   req.RainfallMM,
		WindKPH:      req.WindKPH,
		CrowdDensity: req.CrowdDensity,
	})
	h.manager.Refresh(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"message": "overrides applied"})
}

type crowdSampleRequest struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	People    float64 `json:"people"`
}

// ingestCrowd replaces the crowd sample batch wholesale; the next refresh
// cycle scores it.
func (h *Handler) ingestCrowd(c *gin.Context) {
	var req []crowdSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crowd payload"})
		return
	}

	samples := make([]models.CrowdSample, 0, len(req))
	for _, s := range req {
		samples = append(samples, models.CrowdSample{
			ID:        s.ID,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			People:    s.People,
		})
	}
	h.manager.SetCrowdSamples(samples)

	c.JSON(http.StatusAccepted, gin.H{"message": "crowd batch accepted", "count": len(samples)})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
