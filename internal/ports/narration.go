package ports

import "context"

// Narrator is the speech sink. Speak blocks until the utterance finishes.
// Cancelling ctx stops the utterance; Speak then returns domain.ErrNarrationStopped.
type Narrator interface {
	Speak(ctx context.Context, text string) error
}

// AcknowledgingNarrator finishes an utterance early when the client reports it done.
// An empty id acknowledges whatever is currently pending.
type AcknowledgingNarrator interface {
	Narrator
	Acknowledge(utteranceID string) bool
}
