package models

import "time"

// RiskScore is a normalized score in [0,1] plus the signals that produced it.
type RiskScore struct {
	Value     float64
	Drivers   []string
	Timestamp time.Time
}

// RiskHistoryEntry is one point of the fused time series consumed by external
// charting. Append-only, capped by the history ring.
type RiskHistoryEntry struct {
	Timestamp     time.Time
	DisasterScore float64
	CrowdScore    float64
	CombinedScore float64
	Severity      SeverityLevel
}
