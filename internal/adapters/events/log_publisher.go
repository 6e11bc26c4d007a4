package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used when NATS is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, sessionID string, kind string, payload any) error {
	slog.InfoContext(ctx, "tour event", "session_id", sessionID, "kind", kind, "payload", payload)
	return nil
}
