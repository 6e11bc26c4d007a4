package ports

import (
	"context"

	"landmark-tour-service/internal/domain"
)

// EventPublisher fans navigation events out to the presentation shell.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, kind string, payload any) error
}

// PositionHandler receives samples, or a provider error when a sample could not be produced.
type PositionHandler interface {
	OnPositionUpdate(c domain.Coordinate)
	OnPositionError(err error)
}

// PositionStream delivers live samples for one session until the returned stop func is called.
type PositionStream interface {
	Subscribe(ctx context.Context, sessionID string, h PositionHandler) (stop func() error, err error)
}
