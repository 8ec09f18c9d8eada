package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Risk    RiskConfig
	Routing RoutingConfig
	Session SessionConfig
	Alert   AlertConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int

	// Global request rate limit: sustained requests per second and the
	// short-burst allowance on top of it.
	RateLimitRPS   int
	RateLimitBurst int
}

// RiskConfig tunes the scorers and the fusion engine. Every field has a
// documented valid range and is checked once at load time; violations are
// ops mistakes and fail fast rather than degrade.
type RiskConfig struct {
	// Weather normalization caps (must be > 0).
	RainfallMaxMM float64
	WindMaxKPH    float64

	// Disaster score = HazardTermWeight*hazard + WeatherTermWeight*weather,
	// clamped to [0,1]. Weights must be in [0,1].
	HazardTermWeight  float64
	WeatherTermWeight float64

	// Linear decay radius for hazard proximity outside any polygon (> 0).
	HazardDecayRadiusKm float64

	// Crowd sampling radius in meters (> 0) and the density (people/m2) at
	// which crowd risk saturates (> 0).
	CrowdSampleRadiusM   float64
	CrowdCriticalDensity float64

	// Fusion weights in [0,1] and EMA smoothing factor in (0,1]; higher
	// smoothing favors the most recent signal.
	DisasterWeight float64
	CrowdWeight    float64
	Smoothing      float64

	// Severity thresholds on the smoothed combined score, strictly
	// increasing within (0,1).
	ModerateThreshold float64
	HighThreshold     float64
	CriticalThreshold float64
}

type RoutingConfig struct {
	// Edge generation: connect each location to its KNearest neighbours
	// within MaxEdgeKm.
	KNearest  int
	MaxEdgeKm float64

	// Assumed walking speed for travel-time estimates (> 0).
	WalkSpeedKmph float64

	// Safest-mode multiplier: effective cost = distance * (1 + factor*penalty).
	RiskPenaltyFactor float64

	// Number of straight-line segments in a fallback route.
	FallbackSegments int
}

type SessionConfig struct {
	RefreshInterval time.Duration
	WorkerCount     int
	WorkerBuffer    int

	// Reference point the fused session score is computed at.
	RefLat float64
	RefLon float64
}

type AlertConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

func (a AlertConfig) KafkaEnabled() bool {
	return len(a.KafkaBrokers) > 0
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 10),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Risk: RiskConfig{
			RainfallMaxMM:        getEnvFloat("RAINFALL_MAX_MM", 200),
			WindMaxKPH:           getEnvFloat("WIND_MAX_KPH", 150),
			HazardTermWeight:     getEnvFloat("HAZARD_TERM_WEIGHT", 0.6),
			WeatherTermWeight:    getEnvFloat("WEATHER_TERM_WEIGHT", 0.4),
			HazardDecayRadiusKm:  getEnvFloat("HAZARD_DECAY_RADIUS_KM", 5),
			CrowdSampleRadiusM:   getEnvFloat("CROWD_SAMPLE_RADIUS_M", 20),
			CrowdCriticalDensity: getEnvFloat("CROWD_CRITICAL_DENSITY", 4),
			DisasterWeight:       getEnvFloat("FUSION_DISASTER_WEIGHT", 0.5),
			CrowdWeight:          getEnvFloat("FUSION_CROWD_WEIGHT", 0.5),
			Smoothing:            getEnvFloat("FUSION_SMOOTHING", 0.65),
			ModerateThreshold:    getEnvFloat("SEVERITY_MODERATE", 0.25),
			HighThreshold:        getEnvFloat("SEVERITY_HIGH", 0.5),
			CriticalThreshold:    getEnvFloat("SEVERITY_CRITICAL", 0.75),
		},
		Routing: RoutingConfig{
			KNearest:          getEnvInt("ROUTE_K_NEAREST", 3),
			MaxEdgeKm:         getEnvFloat("ROUTE_MAX_EDGE_KM", 5),
			WalkSpeedKmph:     getEnvFloat("ROUTE_WALK_SPEED_KMPH", 5),
			RiskPenaltyFactor: getEnvFloat("RISK_PENALTY_FACTOR", 25),
			FallbackSegments:  getEnvInt("ROUTE_FALLBACK_SEGMENTS", 8),
		},
		Session: SessionConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 30*time.Second),
			WorkerCount:     getEnvInt("WORKER_COUNT", 2),
			WorkerBuffer:    getEnvInt("WORKER_BUFFER_SIZE", 20),
			RefLat:          getEnvFloat("REFERENCE_LAT", 9.9312),
			RefLon:          getEnvFloat("REFERENCE_LON", 76.2673),
		},
		Alert: AlertConfig{
			KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
			KafkaTopic:   getEnv("KAFKA_ALERT_TOPIC", "severity-transitions"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/crowdshield.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	r := c.Risk
	if r.RainfallMaxMM <= 0 || r.WindMaxKPH <= 0 {
		return fmt.Errorf("weather normalization caps must be positive")
	}
	for name, w := range map[string]float64{
		"HAZARD_TERM_WEIGHT":     r.HazardTermWeight,
		"WEATHER_TERM_WEIGHT":    r.WeatherTermWeight,
		"FUSION_DISASTER_WEIGHT": r.DisasterWeight,
		"FUSION_CROWD_WEIGHT":    r.CrowdWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0,1], got %f", name, w)
		}
	}
	if r.DisasterWeight+r.CrowdWeight <= 0 {
		return fmt.Errorf("fusion weights must not both be zero")
	}
	if r.Smoothing <= 0 || r.Smoothing > 1 {
		return fmt.Errorf("FUSION_SMOOTHING must be in (0,1], got %f", r.Smoothing)
	}
	if r.HazardDecayRadiusKm <= 0 {
		return fmt.Errorf("HAZARD_DECAY_RADIUS_KM must be positive")
	}
	if r.CrowdSampleRadiusM <= 0 || r.CrowdCriticalDensity <= 0 {
		return fmt.Errorf("crowd sampling radius and critical density must be positive")
	}
	if !(r.ModerateThreshold > 0 && r.ModerateThreshold < r.HighThreshold &&
		r.HighThreshold < r.CriticalThreshold && r.CriticalThreshold < 1) {
		return fmt.Errorf("severity thresholds must be strictly increasing within (0,1): %f/%f/%f",
			r.ModerateThreshold, r.HighThreshold, r.CriticalThreshold)
	}

	rt := c.Routing
	if rt.KNearest < 1 {
		return fmt.Errorf("ROUTE_K_NEAREST must be at least 1")
	}
	if rt.MaxEdgeKm <= 0 || rt.WalkSpeedKmph <= 0 {
		return fmt.Errorf("route edge distance and walk speed must be positive")
	}
	if rt.RiskPenaltyFactor < 0 {
		return fmt.Errorf("RISK_PENALTY_FACTOR must not be negative")
	}
	if rt.FallbackSegments < 1 {
		return fmt.Errorf("ROUTE_FALLBACK_SEGMENTS must be at least 1")
	}

	if c.Session.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1 second")
	}
	if c.Session.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Session.RefLat < -90 || c.Session.RefLat > 90 ||
		c.Session.RefLon < -180 || c.Session.RefLon > 180 {
		return fmt.Errorf("reference point out of range: (%f, %f)", c.Session.RefLat, c.Session.RefLon)
	}

	if c.Alert.KafkaEnabled() && c.Alert.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_ALERT_TOPIC is required when brokers are set")
	}

	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
