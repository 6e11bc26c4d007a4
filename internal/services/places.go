package services

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/geo"
	"landmark-tour-service/internal/ports"
)

const maxSuggestions = 8

// Gate markers stored alongside real landmarks; they are never offered for a tour.
var pseudoLandmarks = map[string]bool{"entrance": true, "exit": true}

// PlaceService answers place and landmark lookups for the selection screen.
// Lookup failures are logged and reported as "not found" rather than returned.
type PlaceService struct {
	repo           ports.PlaceRepository
	identifyRadius float64
}

func NewPlaceService(repo ports.PlaceRepository, identifyRadius float64) *PlaceService {
	return &PlaceService{repo: repo, identifyRadius: identifyRadius}
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// IdentifyPlace returns the place owning the landmark nearest to c, if one lies
// within the identify radius.
func (s *PlaceService) IdentifyPlace(ctx context.Context, c domain.Coordinate) (domain.Place, bool) {
	if err := c.Validate(); err != nil {
		return domain.Place{}, false
	}

	minLat, minLon, maxLat, maxLon := geo.BoundingBox(c, s.identifyRadius)
	candidates, err := s.repo.LandmarksInBox(ctx, minLat, minLon, maxLat, maxLon)
	if err != nil {
		slog.WarnContext(ctx, "identify place failed", "lat", c.Latitude, "lon", c.Longitude, "error", err)
		return domain.Place{}, false
	}

	var (
		best  domain.Place
		found bool
	)
	bestDistance := math.Inf(1)
	for _, pl := range candidates {
		d := geo.DistanceMeters(c, pl.Landmark.Coordinate)
		if d > s.identifyRadius {
			continue
		}
		if d < bestDistance || (d == bestDistance && pl.Place.ID < best.ID) {
			best, bestDistance, found = pl.Place, d, true
		}
	}

	return best, found
}

// Landmarks lists the selectable landmarks of a place. Ids that differ only by
// case collapse to one entry and the later row wins.
func (s *PlaceService) Landmarks(ctx context.Context, placeID string) []domain.Landmark {
	if strings.TrimSpace(placeID) == "" {
		return []domain.Landmark{}
	}

	rows, err := s.repo.ListLandmarks(ctx, placeID)
	if err != nil {
		slog.WarnContext(ctx, "list landmarks failed", "place_id", placeID, "error", err)
		return []domain.Landmark{}
	}

	out := make([]domain.Landmark, 0, len(rows))
	pos := make(map[string]int, len(rows))
	for _, lm := range rows {
		key := fold(lm.ID)
		if key == "" || pseudoLandmarks[key] {
			continue
		}
		if i, ok := pos[key]; ok {
			out[i] = lm
			continue
		}
		pos[key] = len(out)
		out = append(out, lm)
	}

	return out
}

// SearchPlace finds a place by name, preferring an exact match over a prefix
// match, and returns it with its landmarks.
func (s *PlaceService) SearchPlace(ctx context.Context, name string) (domain.Place, []domain.Landmark, bool) {
	q := fold(name)
	if q == "" {
		return domain.Place{}, nil, false
	}

	places, err := s.sortedPlaces(ctx)
	if err != nil {
		slog.WarnContext(ctx, "search place failed", "name", name, "error", err)
		return domain.Place{}, nil, false
	}

	var prefix *domain.Place
	for i := range places {
		n := fold(places[i].Name)
		if n == q {
			return places[i], s.Landmarks(ctx, places[i].ID), true
		}
		if prefix == nil && strings.HasPrefix(n, q) {
			prefix = &places[i]
		}
	}
	if prefix == nil {
		return domain.Place{}, nil, false
	}

	return *prefix, s.Landmarks(ctx, prefix.ID), true
}

// SuggestPlaces returns up to eight places whose name starts with prefix.
func (s *PlaceService) SuggestPlaces(ctx context.Context, prefix string) []domain.Place {
	q := fold(prefix)
	out := []domain.Place{}
	if q == "" {
		return out
	}

	places, err := s.sortedPlaces(ctx)
	if err != nil {
		slog.WarnContext(ctx, "suggest places failed", "prefix", prefix, "error", err)
		return out
	}

	for _, p := range places {
		if strings.HasPrefix(fold(p.Name), q) {
			out = append(out, p)
			if len(out) == maxSuggestions {
				break
			}
		}
	}

	return out
}

func (s *PlaceService) sortedPlaces(ctx context.Context) ([]domain.Place, error) {
	places, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(places, func(i, j int) bool {
		a, b := fold(places[i].Name), fold(places[j].Name)
		if a != b {
			return a < b
		}
		return places[i].ID < places[j].ID
	})
	return places, nil
}
