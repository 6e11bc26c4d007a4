package ports

import (
	"context"

	"landmark-tour-service/internal/domain"
)

// Port: a boundary for retrieving places and their landmarks from a data source.
type PlaceRepository interface {
	// Landmarks whose coordinates fall inside the bounding box, each paired with its owning place.
	LandmarksInBox(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]PlacedLandmark, error)
	ListLandmarks(ctx context.Context, placeID string) ([]domain.Landmark, error)
	ListPlaces(ctx context.Context) ([]domain.Place, error)
}

type PlacedLandmark struct {
	Place    domain.Place
	Landmark domain.Landmark
}
