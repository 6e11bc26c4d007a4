package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/obs"
)

// Coordinates are keyed at 1e-6 degrees (about 11 cm).
const keyScale = 1e6

// SQLSegmentCache is a SQL-backed cache for routed segments keyed by (from, to, mode).
type SQLSegmentCache struct {
	DB *sql.DB
}

func NewSQLSegmentCache(db *sql.DB) *SQLSegmentCache {
	return &SQLSegmentCache{DB: db}
}

type cachedSegment struct {
	Steps           []domain.Step       `json:"steps"`
	Geometry        []domain.Coordinate `json:"geometry"`
	DistanceMeters  float64             `json:"distance_meters"`
	DurationSeconds float64             `json:"duration_seconds"`
}

func coordKey(c domain.Coordinate) (int64, int64) {
	return int64(math.Round(c.Latitude * keyScale)), int64(math.Round(c.Longitude * keyScale))
}

// Fetch a cached segment for one (from, to, mode) key.
func (s *SQLSegmentCache) Get(
	ctx context.Context,
	from, to domain.Coordinate,
	mode domain.TravelMode,
) (_ domain.NavigationSegment, _ bool, err error) {
	defer obs.Time(ctx, "segment.cache.Get")(&err)

	if s.DB == nil {
		return domain.NavigationSegment{}, false, errors.New("segment cache: db is nil")
	}

	fromLat, fromLon := coordKey(from)
	toLat, toLon := coordKey(to)

	q := `
	SELECT payload
	FROM segment_cache
	WHERE from_lat = $1 AND from_lon = $2
		AND to_lat = $3 AND to_lon = $4
		AND mode = $5;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, fromLat, fromLon, toLat, toLon, string(mode)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NavigationSegment{}, false, nil
	}
	if err != nil {
		return domain.NavigationSegment{}, false, fmt.Errorf("get segment cache: query segment_cache table: %w", err)
	}

	var cs cachedSegment
	if err := json.Unmarshal(payload, &cs); err != nil {
		return domain.NavigationSegment{}, false, fmt.Errorf("get segment cache: decode payload: %w", err)
	}
	if cs.Steps == nil {
		cs.Steps = []domain.Step{}
	}

	return domain.NavigationSegment{
		From:            from,
		To:              to,
		Mode:            mode,
		Steps:           cs.Steps,
		Geometry:        cs.Geometry,
		DistanceMeters:  cs.DistanceMeters,
		DurationSeconds: cs.DurationSeconds,
	}, true, nil
}

// Store a routed segment, replacing any previous entry for the same key.
func (s *SQLSegmentCache) Put(ctx context.Context, seg domain.NavigationSegment) error {
	if s.DB == nil {
		return errors.New("segment cache: db is nil")
	}

	if !seg.Mode.IsValid() {
		return fmt.Errorf("insert segment cache: invalid mode %q", seg.Mode)
	}

	payload, err := json.Marshal(cachedSegment{
		Steps:           seg.Steps,
		Geometry:        seg.Geometry,
		DistanceMeters:  seg.DistanceMeters,
		DurationSeconds: seg.DurationSeconds,
	})
	if err != nil {
		return fmt.Errorf("insert segment cache: encode payload: %w", err)
	}

	fromLat, fromLon := coordKey(seg.From)
	toLat, toLon := coordKey(seg.To)

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO segment_cache (from_lat, from_lon, to_lat, to_lon, mode, payload)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (from_lat, from_lon, to_lat, to_lon, mode) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated_at = now();
	`, fromLat, fromLon, toLat, toLon, string(seg.Mode), payload)
	if err != nil {
		return fmt.Errorf("insert segment cache mode=%q: %w", seg.Mode, err)
	}

	return nil
}
