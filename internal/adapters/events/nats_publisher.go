package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"landmark-tour-service/internal/platform/obs"
)

const (
	eventStream   = "TOUR_EVENTS"
	eventSubjects = "tour.events.>"
	kindHeader    = "Tour-Event-Kind"
)

// Connect dials NATS with unlimited reconnects.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("landmark-tour-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NATSPublisher implements ports.EventPublisher using NATS JetStream.
// Events for a session land on tour.events.<session id>.
type NATSPublisher struct {
	js nats.JetStreamContext
}

// NewNATSPublisher enables JetStream on conn and ensures the event stream exists.
func NewNATSPublisher(conn *nats.Conn) (*NATSPublisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      eventStream,
		Subjects:  []string{eventSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    6 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &NATSPublisher{js: js}, nil
}

func EventSubject(sessionID string) string { return "tour.events." + sessionID }

func (p *NATSPublisher) Publish(ctx context.Context, sessionID string, kind string, payload any) (err error) {
	defer obs.Time(ctx, "events.Publish")(&err)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publish %s: marshal: %w", kind, err)
	}

	msg := nats.NewMsg(EventSubject(sessionID))
	msg.Data = data
	msg.Header.Set(kindHeader, kind)

	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s for %s: %w", kind, sessionID, err)
	}
	return nil
}
