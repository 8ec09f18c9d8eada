package repository

import (
	"context"
	"time"

	"github.com/arjunkp/crowdshield/internal/models"
)

// Filter narrows snapshot listings.
type Filter struct {
	Limit int
	Since *time.Time
}

// ShelterRepository stores the shelter/waypoint location set, loaded once
// per session.
type ShelterRepository interface {
	AddShelter(ctx context.Context, loc models.Location) error
	ListShelters(ctx context.Context) ([]models.Location, error)
}

// HazardRepository stores hazard zone polygons.
type HazardRepository interface {
	AddHazard(ctx context.Context, zone models.HazardZone) error
	ListHazards(ctx context.Context) ([]models.HazardZone, error)
}

// SnapshotRepository persists fused risk snapshots so history survives
// restarts and external charting can read beyond the in-memory ring.
type SnapshotRepository interface {
	AddSnapshot(ctx context.Context, entry models.RiskHistoryEntry) error
	ListSnapshots(ctx context.Context, opts Filter) ([]models.RiskHistoryEntry, error)
}

// Store bundles the three repositories behind one handle.
type Store interface {
	ShelterRepository
	HazardRepository
	SnapshotRepository
}
