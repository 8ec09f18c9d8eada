package models

type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "LOW"
	SeverityModerate SeverityLevel = "MODERATE"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityCritical SeverityLevel = "CRITICAL"
)

// rank orders severity levels so transitions can be compared.
var rank = map[SeverityLevel]int{
	SeverityLow:      0,
	SeverityModerate: 1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

func (s SeverityLevel) Rank() int {
	return rank[s]
}

func (s SeverityLevel) Above(other SeverityLevel) bool {
	return rank[s] > rank[other]
}
