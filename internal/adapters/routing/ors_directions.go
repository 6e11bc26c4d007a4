package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"landmark-tour-service/internal/domain"
)

// errNoRoute means the service answered but offered no candidate path for the mode.
var errNoRoute = errors.New("no route for mode")

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type directionsResponse struct {
	Features []directionsFeature `json:"features"`
}

type directionsFeature struct {
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Segments []directionsSegment `json:"segments"`
		Summary  struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"properties"`
}

type directionsSegment struct {
	Distance float64          `json:"distance"`
	Duration float64          `json:"duration"`
	Steps    []directionsStep `json:"steps"`
}

type directionsStep struct {
	Instruction string  `json:"instruction"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Name        string  `json:"name"`
	WayPoints   []int   `json:"way_points"`
}

// fetchDirections requests a GeoJSON route for one profile.
func (o *ORSRouter) fetchDirections(
	ctx context.Context,
	profile string,
	from, to domain.Coordinate,
) (*directionsResponse, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  [][]float64{from.CoordsToList(), to.CoordsToList()},
		Instructions: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	body, err := o.postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	return &dr, nil
}

// normalizeDirections turns the first feature of a directions reply into a segment.
// Each step's anchor is the geometry point at its first way-point index.
// Geometry without steps is valid and yields an empty step list.
func normalizeDirections(dr *directionsResponse) (domain.NavigationSegment, error) {
	if dr == nil || len(dr.Features) == 0 {
		return domain.NavigationSegment{}, errNoRoute
	}
	f := dr.Features[0]

	if len(f.Geometry.Coordinates) == 0 {
		return domain.NavigationSegment{}, fmt.Errorf("%w: empty geometry", errNoRoute)
	}

	geometry := make([]domain.Coordinate, 0, len(f.Geometry.Coordinates))
	for i, p := range f.Geometry.Coordinates {
		c, err := domain.CoordinateFromList(p)
		if err != nil {
			return domain.NavigationSegment{}, fmt.Errorf("geometry point %d: %w", i, err)
		}
		geometry = append(geometry, c)
	}

	steps := []domain.Step{}
	for si, s := range f.Properties.Segments {
		for i, st := range s.Steps {
			if len(st.WayPoints) == 0 {
				return domain.NavigationSegment{}, fmt.Errorf("segment %d step %d: missing way_points", si, i)
			}
			wp := st.WayPoints[0]
			if wp < 0 || wp >= len(geometry) {
				return domain.NavigationSegment{}, fmt.Errorf(
					"segment %d step %d: way point %d outside geometry of %d points",
					si, i, wp, len(geometry),
				)
			}

			steps = append(steps, domain.Step{
				Instruction:    strings.TrimSpace(st.Instruction),
				DistanceMeters: st.Distance,
				Anchor:         geometry[wp],
			})
		}
	}

	return domain.NavigationSegment{
		Steps:           steps,
		Geometry:        geometry,
		DistanceMeters:  f.Properties.Summary.Distance,
		DurationSeconds: f.Properties.Summary.Duration,
	}, nil
}
