package ports

import (
	"context"

	"landmark-tour-service/internal/domain"
)

// Persists the computed tour across the selection -> navigation handoff.
type TourStore interface {
	Save(ctx context.Context, sessionID string, plan domain.TourPlan) error
	// Returns domain.ErrTourNotFound when the session has no stored plan.
	Load(ctx context.Context, sessionID string) (domain.TourPlan, error)
	Delete(ctx context.Context, sessionID string) error
}
