package domain

import "errors"

var (
	// ErrInvalidRequest marks caller input that can never succeed (empty landmark set, bad coordinates).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSegmentUnavailable means every travel mode failed or timed out; retriable.
	ErrSegmentUnavailable = errors.New("segment unavailable")

	// ErrPositionUnavailable reports a denied permission or provider failure; navigation pauses.
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrNarrationFailure wraps speech sink errors; logged and swallowed by navigation.
	ErrNarrationFailure = errors.New("narration failure")

	// ErrNarrationStopped is returned by a narrator when an utterance was cancelled.
	ErrNarrationStopped = errors.New("narration stopped")

	// ErrInvalidTransition is returned when an action is not valid in the current navigation state.
	ErrInvalidTransition = errors.New("invalid navigation transition")

	ErrTourNotFound = errors.New("tour not found")
)
