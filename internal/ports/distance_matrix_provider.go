package ports

import (
	"context"

	"landmark-tour-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for batched all-pairs travel costs over a small set of coordinates.
type DistanceMatrixProvider interface {
	// Return an n×n matrix where result[i][j] is the cost of travelling from locations[i] to locations[j].
	GetMatrix(ctx context.Context, locations []domain.Coordinate) ([][]DistanceResult, error)
}
