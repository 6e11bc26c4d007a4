package domain

import (
	"fmt"
	"strings"
)

// TourRequest is the input to tour sequencing: where the visitor stands and what they selected.
type TourRequest struct {
	Origin    Coordinate `json:"origin"`
	Landmarks []Landmark `json:"landmarks"`
}

// Validate rejects an empty selection, blank or duplicate ids, and bad coordinates.
func (r TourRequest) Validate() error {
	if len(r.Landmarks) == 0 {
		return fmt.Errorf("tour request: landmark set must not be empty: %w", ErrInvalidRequest)
	}
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("tour request: origin: %w", err)
	}

	seen := make(map[string]struct{}, len(r.Landmarks))
	for i, lm := range r.Landmarks {
		if strings.TrimSpace(lm.ID) == "" {
			return fmt.Errorf("tour request: landmark at index %d has empty id: %w", i, ErrInvalidRequest)
		}
		if _, ok := seen[lm.ID]; ok {
			return fmt.Errorf("tour request: duplicate landmark id %q: %w", lm.ID, ErrInvalidRequest)
		}
		seen[lm.ID] = struct{}{}

		if err := lm.Coordinate.Validate(); err != nil {
			return fmt.Errorf("tour request: landmark %q: %w", lm.ID, err)
		}
	}
	return nil
}

// TourPlan is the ordered visiting sequence produced once per TourRequest.
// It is immutable planning data; PerLegDistanceMeters[i] is the leg ending at OrderedStops[i],
// so the first entry is the origin -> first stop leg.
type TourPlan struct {
	Origin               Coordinate `json:"origin"`
	OrderedStops         []Landmark `json:"ordered_stops"`
	TotalDistanceMeters  float64    `json:"total_distance_meters"`
	PerLegDistanceMeters []float64  `json:"per_leg_distance_meters"`
	Metric               string     `json:"metric"`
}

// LegStart returns the coordinate segment i departs from: the origin for i == 0, else the previous stop.
func (p *TourPlan) LegStart(i int) Coordinate {
	if i == 0 {
		return p.Origin
	}
	return p.OrderedStops[i-1].Coordinate
}
