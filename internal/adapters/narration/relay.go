package narration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/ports"
)

const (
	KindSpeak = "narration"
	KindStop  = "narration-stop"
)

// Utterance is what the client speaks; it reports back with the same ID.
type Utterance struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	EstimatedMs int64  `json:"estimated_ms"`
}

// Relay is a ports.Narrator that hands speech to the client device through the
// event publisher. An utterance completes when the client acknowledges it or
// once its estimated speaking time has passed, whichever comes first.
type Relay struct {
	pub       ports.EventPublisher
	sessionID string

	MinDuration time.Duration
	PerWord     time.Duration

	mu      sync.Mutex
	pending map[string]chan struct{}
}

func NewRelay(pub ports.EventPublisher, sessionID string) *Relay {
	return &Relay{
		pub:         pub,
		sessionID:   sessionID,
		MinDuration: 2 * time.Second,
		PerWord:     400 * time.Millisecond,
		pending:     map[string]chan struct{}{},
	}
}

func (r *Relay) estimate(text string) time.Duration {
	d := time.Duration(len(strings.Fields(text))) * r.PerWord
	if d < r.MinDuration {
		d = r.MinDuration
	}
	return d
}

func (r *Relay) Speak(ctx context.Context, text string) error {
	u := Utterance{ID: uuid.NewString(), Text: text}
	wait := r.estimate(text)
	u.EstimatedMs = wait.Milliseconds()

	ack := make(chan struct{})
	r.mu.Lock()
	r.pending[u.ID] = ack
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, u.ID)
		r.mu.Unlock()
	}()

	if err := r.pub.Publish(ctx, r.sessionID, KindSpeak, u); err != nil {
		if ctx.Err() != nil {
			return domain.ErrNarrationStopped
		}
		return fmt.Errorf("%w: %w", domain.ErrNarrationFailure, err)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ack:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		// Tell the device to cut the utterance short; best effort.
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = r.pub.Publish(stopCtx, r.sessionID, KindStop, Utterance{ID: u.ID})
		return domain.ErrNarrationStopped
	}
}

// Acknowledge marks an utterance finished. An empty id acknowledges whatever is pending.
// It reports whether anything was waiting.
func (r *Relay) Acknowledge(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for pid, ch := range r.pending {
		if id != "" && pid != id {
			continue
		}
		close(ch)
		delete(r.pending, pid)
		found = true
	}
	return found
}
