package events

import (
	"testing"

	"landmark-tour-service/internal/domain"
)

type recordingHandler struct {
	coords []domain.Coordinate
	errs   []error
}

func (h *recordingHandler) OnPositionUpdate(c domain.Coordinate) { h.coords = append(h.coords, c) }
func (h *recordingHandler) OnPositionError(err error)            { h.errs = append(h.errs, err) }

func TestDispatchSample(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantCoords int
		wantErrs   int
	}{
		{name: "fix", payload: `{"latitude": 12.95, "longitude": 77.58, "heading": 90}`, wantCoords: 1},
		{name: "provider error", payload: `{"error": "permission denied"}`, wantErrs: 1},
		{name: "malformed", payload: `{"latitude": "north"}`},
		{name: "out of range", payload: `{"latitude": 120, "longitude": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			dispatchSample([]byte(tt.payload), h)
			if len(h.coords) != tt.wantCoords || len(h.errs) != tt.wantErrs {
				t.Fatalf("coords=%v errs=%v", h.coords, h.errs)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	if got := EventSubject("abc"); got != "tour.events.abc" {
		t.Fatalf("EventSubject = %q", got)
	}
	if got := PositionSubject("abc"); got != "tour.positions.abc" {
		t.Fatalf("PositionSubject = %q", got)
	}
}
