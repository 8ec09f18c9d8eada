package models

import "strings"

type RouteMode string

const (
	RouteShortest RouteMode = "shortest"
	RouteFastest  RouteMode = "fastest"
	RouteSafest   RouteMode = "safest"
)

func ParseRouteMode(s string) (RouteMode, bool) {
	switch strings.ToLower(s) {
	case "shortest":
		return RouteShortest, true
	case "fastest":
		return RouteFastest, true
	case "safest":
		return RouteSafest, true
	default:
		return "", false
	}
}

// RouteResult is the ordered path from origin to destination. The routing
// engine always returns one: when no graph path exists it degrades to a
// straight-line fallback, flagged so consumers never treat it as
// risk-validated.
type RouteResult struct {
	Path       []Location
	Mode       RouteMode
	TotalCost  float64
	DistanceKm float64
	ETAMinutes float64
	IsFallback bool
	Reason     string
}

func (r RouteResult) Empty() bool {
	return len(r.Path) == 0
}
