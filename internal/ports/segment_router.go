package ports

import (
	"context"

	"landmark-tour-service/internal/domain"
)

// Contract for routing a single origin->destination segment.
type SegmentRouter interface {
	// Try each mode in order and return the first well-formed route.
	// Fails with domain.ErrSegmentUnavailable when every mode fails or times out.
	FetchSegment(ctx context.Context, from, to domain.Coordinate, modes []domain.TravelMode) (domain.NavigationSegment, error)
}

// Cache of routed segments keyed by (from, to, mode).
type SegmentCache interface {
	Get(ctx context.Context, from, to domain.Coordinate, mode domain.TravelMode) (domain.NavigationSegment, bool, error)
	Put(ctx context.Context, seg domain.NavigationSegment) error
}
