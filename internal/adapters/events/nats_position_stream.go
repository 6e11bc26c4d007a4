package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/ports"
)

// PositionSample is the wire shape of a device sample on tour.positions.<session id>.
// A non-empty Error reports a provider failure instead of a fix.
type PositionSample struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// NATSPositionStream implements ports.PositionStream over core NATS subscriptions.
type NATSPositionStream struct {
	conn *nats.Conn
}

func NewNATSPositionStream(conn *nats.Conn) *NATSPositionStream {
	return &NATSPositionStream{conn: conn}
}

func PositionSubject(sessionID string) string { return "tour.positions." + sessionID }

func (s *NATSPositionStream) Subscribe(ctx context.Context, sessionID string, h ports.PositionHandler) (func() error, error) {
	subject := PositionSubject(sessionID)

	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		dispatchSample(msg.Data, h)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	slog.DebugContext(ctx, "position stream subscribed", "subject", subject)
	return sub.Unsubscribe, nil
}

// dispatchSample decodes one message and forwards it. Malformed payloads are dropped.
func dispatchSample(data []byte, h ports.PositionHandler) {
	var sample PositionSample
	if err := json.Unmarshal(data, &sample); err != nil {
		slog.Debug("dropping malformed position sample", "error", err)
		return
	}

	if sample.Error != "" {
		h.OnPositionError(errors.New(sample.Error))
		return
	}

	c := domain.Coordinate{Latitude: sample.Latitude, Longitude: sample.Longitude}
	if err := c.Validate(); err != nil {
		slog.Debug("dropping out-of-range position sample", "error", err)
		return
	}
	h.OnPositionUpdate(c)
}
