package domain

import (
	"fmt"
	"strings"
)

// TravelMode is the routing profile requested for a segment.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeHiking  TravelMode = "hiking"
	ModeCycling TravelMode = "cycling"
	ModeDriving TravelMode = "driving"
)

// DefaultModePreference is tried in order until one mode yields a route.
var DefaultModePreference = []TravelMode{ModeWalking, ModeHiking, ModeCycling, ModeDriving}

// IsValid checks if the travel mode is known.
func (m TravelMode) IsValid() bool {
	switch m {
	case ModeWalking, ModeHiking, ModeCycling, ModeDriving:
		return true
	default:
		return false
	}
}

// ParseModes converts configuration strings into travel modes, rejecting unknown values.
func ParseModes(names []string) ([]TravelMode, error) {
	modes := make([]TravelMode, 0, len(names))
	for _, n := range names {
		m := TravelMode(strings.ToLower(strings.TrimSpace(n)))
		if !m.IsValid() {
			return nil, fmt.Errorf("unknown travel mode %q", n)
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// Step is one turn-by-turn instruction. Anchor is where the step becomes current.
type Step struct {
	Instruction    string     `json:"instruction"`
	DistanceMeters float64    `json:"distance_meters"`
	Anchor         Coordinate `json:"anchor"`
}

// NavigationSegment is the routed path between two consecutive tour positions.
// Segments are replaced wholesale, never mutated after install.
type NavigationSegment struct {
	From            Coordinate   `json:"from"`
	To              Coordinate   `json:"to"`
	ToLandmark      Landmark     `json:"to_landmark"`
	Mode            TravelMode   `json:"mode"`
	Steps           []Step       `json:"steps"`
	Geometry        []Coordinate `json:"geometry"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
}
