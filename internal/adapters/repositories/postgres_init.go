package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"landmark-tour-service/internal/domain"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPlacesQuery := `
	CREATE TABLE IF NOT EXISTS places (
		place_id TEXT PRIMARY KEY,
		place_name TEXT NOT NULL
	);
	`

	createLandmarksQuery := `
	CREATE TABLE IF NOT EXISTS landmarks (
		place_id TEXT NOT NULL REFERENCES places(place_id) ON DELETE CASCADE,
		landmark TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (place_id, landmark)
	);
	`

	createLandmarkIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_landmarks_lat_lon
	ON landmarks(latitude, longitude);
	`

	createSegmentCacheQuery := `
	CREATE TABLE IF NOT EXISTS segment_cache (
		from_lat BIGINT NOT NULL,
		from_lon BIGINT NOT NULL,
		to_lat BIGINT NOT NULL,
		to_lon BIGINT NOT NULL,
		mode TEXT NOT NULL,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (from_lat, from_lon, to_lat, to_lon, mode)
	);
	`

	statements := []string{
		createPlacesQuery,
		createLandmarksQuery,
		createLandmarkIndexQuery,
		createSegmentCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type LandmarkSeed struct {
	Landmark    string  `json:"landmark"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
}

type PlaceSeed struct {
	PlaceID   string         `json:"place_id"`
	PlaceName string         `json:"place_name"`
	Landmarks []LandmarkSeed `json:"landmarks"`
}

// ParseSeeds reads and validates place seed data from a JSON file.
func ParseSeeds(jsonPath string) ([]PlaceSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed places: read %q: %w", jsonPath, err)
	}

	var data []PlaceSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed places: parse json: %w", err)
	}

	rows := make([]PlaceSeed, 0, len(data))
	for i, p := range data {
		p.PlaceID = strings.TrimSpace(p.PlaceID)
		p.PlaceName = strings.TrimSpace(p.PlaceName)
		if p.PlaceID == "" || p.PlaceName == "" {
			return nil, fmt.Errorf("seed places: place at index %d: id and name cannot be empty", i+1)
		}

		for j, lm := range p.Landmarks {
			name := strings.TrimSpace(lm.Landmark)
			if name == "" {
				return nil, fmt.Errorf("seed places: %s landmark at index %d: name cannot be empty", p.PlaceID, j+1)
			}
			c := domain.Coordinate{Latitude: lm.Latitude, Longitude: lm.Longitude}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("seed places: %s landmark %q: %w", p.PlaceID, name, err)
			}
			p.Landmarks[j].Landmark = name
			p.Landmarks[j].Description = strings.TrimSpace(lm.Description)
		}
		rows = append(rows, p)
	}

	return rows, nil
}

// Populate the database with places and landmarks from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	rows, err := ParseSeeds(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed places: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO places (place_id, place_name)
	VALUES ($1, $2)
	ON CONFLICT (place_id) DO UPDATE
	SET place_name = EXCLUDED.place_name;
	`)
	if err != nil {
		return fmt.Errorf("seed places: prepare place insert: %w", err)
	}
	defer placeStmt.Close()

	landmarkStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO landmarks (place_id, landmark, latitude, longitude, description)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (place_id, landmark) DO UPDATE
	SET latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		description = EXCLUDED.description;
	`)
	if err != nil {
		return fmt.Errorf("seed places: prepare landmark insert: %w", err)
	}
	defer landmarkStmt.Close()

	for _, p := range rows {
		if _, err := placeStmt.ExecContext(ctx, p.PlaceID, p.PlaceName); err != nil {
			return fmt.Errorf("seed places: insert place_id=%q: %w", p.PlaceID, err)
		}
		for _, lm := range p.Landmarks {
			if _, err := landmarkStmt.ExecContext(ctx, p.PlaceID, lm.Landmark, lm.Latitude, lm.Longitude, lm.Description); err != nil {
				return fmt.Errorf("seed places: insert landmark %q of %q: %w", lm.Landmark, p.PlaceID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed places: commit tx: %w", err)
	}

	return nil
}
