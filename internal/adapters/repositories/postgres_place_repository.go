package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/obs"
	"landmark-tour-service/internal/ports"
)

// Postgres-backed implementation of the PlaceRepository port.
type PostgresPlaceRepository struct{ DB *sql.DB }

func NewPostgresPlaceRepository(db *sql.DB) *PostgresPlaceRepository {
	return &PostgresPlaceRepository{DB: db}
}

// Retrieve landmarks inside a bounding box together with their place.
func (r *PostgresPlaceRepository) LandmarksInBox(
	ctx context.Context,
	minLat, minLon, maxLat, maxLon float64,
) (_ []ports.PlacedLandmark, err error) {
	defer obs.Time(ctx, "places.LandmarksInBox")(&err)

	if r.DB == nil {
		return nil, errors.New("landmarks in box: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT p.place_id, p.place_name, l.landmark, l.latitude, l.longitude, l.description
	FROM landmarks l
	JOIN places p ON p.place_id = l.place_id
	WHERE l.latitude BETWEEN $1 AND $3
		AND l.longitude BETWEEN $2 AND $4;
	`, minLat, minLon, maxLat, maxLon)
	if err != nil {
		return nil, fmt.Errorf("landmarks in box: query: %w", err)
	}
	defer rows.Close()

	out := []ports.PlacedLandmark{}
	for rows.Next() {
		var pl ports.PlacedLandmark
		if err := rows.Scan(
			&pl.Place.ID, &pl.Place.Name,
			&pl.Landmark.ID, &pl.Landmark.Coordinate.Latitude, &pl.Landmark.Coordinate.Longitude, &pl.Landmark.Description,
		); err != nil {
			return nil, fmt.Errorf("landmarks in box: scan row: %w", err)
		}
		out = append(out, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("landmarks in box: iterate rows: %w", err)
	}

	return out, nil
}

// Retrieve all landmarks of one place, ordered by name.
func (r *PostgresPlaceRepository) ListLandmarks(ctx context.Context, placeID string) (_ []domain.Landmark, err error) {
	defer obs.Time(ctx, "places.ListLandmarks")(&err)

	if r.DB == nil {
		return nil, errors.New("list landmarks: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT landmark, latitude, longitude, description
	FROM landmarks
	WHERE place_id = $1
	ORDER BY landmark;
	`, placeID)
	if err != nil {
		return nil, fmt.Errorf("list landmarks: query: %w", err)
	}
	defer rows.Close()

	out := []domain.Landmark{}
	for rows.Next() {
		var lm domain.Landmark
		if err := rows.Scan(&lm.ID, &lm.Coordinate.Latitude, &lm.Coordinate.Longitude, &lm.Description); err != nil {
			return nil, fmt.Errorf("list landmarks: scan row: %w", err)
		}
		out = append(out, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list landmarks: iterate rows: %w", err)
	}

	return out, nil
}

// Retrieve every place, ordered by name.
func (r *PostgresPlaceRepository) ListPlaces(ctx context.Context) (_ []domain.Place, err error) {
	defer obs.Time(ctx, "places.ListPlaces")(&err)

	if r.DB == nil {
		return nil, errors.New("list places: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT place_id, place_name FROM places ORDER BY place_name;`)
	if err != nil {
		return nil, fmt.Errorf("list places: query: %w", err)
	}
	defer rows.Close()

	out := []domain.Place{}
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("list places: scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list places: iterate rows: %w", err)
	}

	return out, nil
}
