package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arjunkp/crowdshield/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS shelters (
			id TEXT PRIMARY KEY,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS hazard_zones (
			name TEXT PRIMARY KEY,
			polygon TEXT NOT NULL,
			severity REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS risk_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			disaster_score REAL NOT NULL,
			crowd_score REAL NOT NULL,
			combined_score REAL NOT NULL,
			severity TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON risk_snapshots(timestamp);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) AddShelter(ctx context.Context, loc models.Location) error {
	if _, err := models.NewLocation(loc.ID, loc.Latitude, loc.Longitude, loc.Capacity); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO shelters (id, latitude, longitude, capacity) VALUES (?, ?, ?, ?)`,
		loc.ID, loc.Latitude, loc.Longitude, loc.Capacity)
	if err != nil {
		return fmt.Errorf("error adding shelter %s: %w", loc.ID, err)
	}
	return nil
}

func (s *SQLiteDB) ListShelters(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, latitude, longitude, capacity FROM shelters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing shelters: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Latitude, &loc.Longitude, &loc.Capacity); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) AddHazard(ctx context.Context, zone models.HazardZone) error {
	if _, err := models.NewHazardZone(zone.Name, zone.Polygon, zone.Severity); err != nil {
		return err
	}
	polygon, err := json.Marshal(zone.Polygon)
	if err != nil {
		return fmt.Errorf("error encoding polygon for %s: %w", zone.Name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO hazard_zones (name, polygon, severity) VALUES (?, ?, ?)`,
		zone.Name, string(polygon), zone.Severity)
	if err != nil {
		return fmt.Errorf("error adding hazard zone %s: %w", zone.Name, err)
	}
	return nil
}

func (s *SQLiteDB) ListHazards(ctx context.Context) ([]models.HazardZone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, polygon, severity FROM hazard_zones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing hazard zones: %w", err)
	}
	defer rows.Close()

	var out []models.HazardZone
	for rows.Next() {
		var zone models.HazardZone
		var polygon string
		if err := rows.Scan(&zone.Name, &polygon, &zone.Severity); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(polygon), &zone.Polygon); err != nil {
			return nil, fmt.Errorf("error decoding polygon for %s: %w", zone.Name, err)
		}
		out = append(out, zone)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) AddSnapshot(ctx context.Context, entry models.RiskHistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO risk_snapshots (timestamp, disaster_score, crowd_score, combined_score, severity)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC(), entry.DisasterScore, entry.CrowdScore, entry.CombinedScore, string(entry.Severity))
	if err != nil {
		return fmt.Errorf("error adding snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListSnapshots(ctx context.Context, opts Filter) ([]models.RiskHistoryEntry, error) {
	query := `SELECT timestamp, disaster_score, crowd_score, combined_score, severity FROM risk_snapshots`
	args := []any{}
	if opts.Since != nil {
		query += ` WHERE timestamp >= ?`
		args = append(args, opts.Since.UTC())
	}
	query += ` ORDER BY timestamp ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.RiskHistoryEntry
	for rows.Next() {
		var e models.RiskHistoryEntry
		var severity string
		var ts time.Time
		if err := rows.Scan(&ts, &e.DisasterScore, &e.CrowdScore, &e.CombinedScore, &severity); err != nil {
			return nil, err
		}
		e.Timestamp = ts
		e.Severity = models.SeverityLevel(severity)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Seed inserts a minimal shelter set when the table is empty, mirroring the
// synthetic fallback data the external loader substitutes for missing files.
func (s *SQLiteDB) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shelters`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Location{
		{ID: "town-hall-shelter", Latitude: 9.9312, Longitude: 76.2673, Capacity: 250},
		{ID: "st-marys-school", Latitude: 9.9400, Longitude: 76.2700, Capacity: 200},
		{ID: "stadium-annex", Latitude: 9.9250, Longitude: 76.2800, Capacity: 500},
		{ID: "harbour-office", Latitude: 9.9350, Longitude: 76.2600, Capacity: 80},
	}
	for _, loc := range defaults {
		if err := s.AddShelter(ctx, loc); err != nil {
			return err
		}
	}
	return nil
}
