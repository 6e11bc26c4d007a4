package routing

import (
	"context"
	"encoding/json"
	"fmt"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/obs"
	"landmark-tour-service/internal/ports"
)

// ORS rejects larger matrices on the public plan.
const maxMatrixLocations = 50

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetMatrix retrieves all-pairs walking distance and duration for the given locations
// with a single OpenRouteService matrix request.
func (o *ORSRouter) GetMatrix(
	ctx context.Context,
	locations []domain.Coordinate,
) (_ [][]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetMatrix")(&err)

	n := len(locations)
	if n == 0 {
		return [][]ports.DistanceResult{}, nil
	}
	if n > maxMatrixLocations {
		return nil, fmt.Errorf("matrix: %d locations exceeds limit of %d", n, maxMatrixLocations)
	}

	profile, err := Profile(domain.ModeWalking)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, profile)

	coords := make([][]float64, 0, n)
	for _, c := range locations {
		coords = append(coords, c.CoordsToList())
	}

	// Omitting sources and destinations asks for the full n×n matrix.
	payload, err := json.Marshal(matrixRequest{
		Locations: coords,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.modeTimeout)
	defer cancel()

	body, err := o.postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf(
			"expected %d rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]ports.DistanceResult, n)
	for i := 0; i < n; i++ {
		rowDistances := mr.Distances[i]
		rowDurations := mr.Durations[i]

		if len(rowDistances) != n || len(rowDurations) != n {
			return nil, fmt.Errorf(
				"row %d length does not match locations: distances=%d durations=%d locations=%d",
				i, len(rowDistances), len(rowDurations), n,
			)
		}

		out[i] = make([]ports.DistanceResult, n)
		for j := 0; j < n; j++ {
			metersPtr := rowDistances[j]
			secondsPtr := rowDurations[j]

			// null cells mean the pair is unroutable.
			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("matrix returned invalid metrics for %d -> %d", i, j)
			}

			out[i][j] = ports.DistanceResult{
				DistanceMeters:  *metersPtr,
				DurationSeconds: *secondsPtr,
			}
		}
	}

	return out, nil
}
