package navigation

import "landmark-tour-service/internal/domain"

type State string

const (
	StateIdle             State = "idle"
	StateSegmentLoading   State = "segment-loading"
	StateSegmentActive    State = "segment-active"
	StateLandmarkReached  State = "landmark-reached"
	StateSegmentAdvancing State = "segment-advancing"
	StateCompleted        State = "completed"
	StateAbandoned        State = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAbandoned
}

// Snapshot is a read-only copy of the navigation state.
type Snapshot struct {
	SessionID          string                    `json:"session_id"`
	State              State                     `json:"state"`
	SegmentIndex       int                       `json:"current_segment_index"`
	StepIndex          int                       `json:"current_step_index"`
	SpokenSteps        []int                     `json:"spoken_step_indices"`
	VisitedLandmarkIDs []string                  `json:"visited_landmark_ids"`
	LastCoordinate     *domain.Coordinate        `json:"last_user_coordinate,omitempty"`
	Target             *domain.Landmark          `json:"target,omitempty"`
	Segment            *domain.NavigationSegment `json:"segment,omitempty"`
	TotalSegments      int                       `json:"total_segments"`
	Muted              bool                      `json:"muted"`
	Narrating          bool                      `json:"narrating"`
	PositionError      string                    `json:"position_error,omitempty"`
	SegmentError       string                    `json:"segment_error,omitempty"`
}
