package navigation

import (
	"time"

	"landmark-tour-service/internal/domain"
)

type EventKind string

const (
	EventNarrateDirection   EventKind = "narrate-direction"
	EventNarrateDescription EventKind = "narrate-description"
	EventLandmarkReached    EventKind = "landmark-reached"
	EventSegmentAdvanced    EventKind = "segment-advanced"
	EventTourComplete       EventKind = "tour-complete"
	EventSegmentError       EventKind = "segment-error"

	// Reply to a repeat request once every step of the segment has been passed.
	EventDestinationReached EventKind = "destination-reached"
	EventPositionLost       EventKind = "position-unavailable"
	EventTourAbandoned      EventKind = "tour-abandoned"
)

// Event is what the machine emits to the presentation shell.
type Event struct {
	Kind         EventKind        `json:"kind"`
	SessionID    string           `json:"session_id,omitempty"`
	SegmentIndex int              `json:"segment_index"`
	StepIndex    *int             `json:"step_index,omitempty"`
	Text         string           `json:"text,omitempty"`
	Landmark     *domain.Landmark `json:"landmark,omitempty"`
	Mode         string           `json:"mode,omitempty"`
	Repeat       bool             `json:"repeat,omitempty"`
	Error        string           `json:"error,omitempty"`
	At           time.Time        `json:"at"`
}
