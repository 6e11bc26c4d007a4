package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/geo"
	"landmark-tour-service/internal/platform/obs"
	"landmark-tour-service/internal/ports"
)

// Distances closer than this are treated as equal and resolved by landmark id.
const tieTolerance = 1e-9

const (
	MetricHaversine = "haversine"
	MetricWalking   = "walking"
)

// ComputeTour orders the selected landmarks into a walking tour from the origin
// using a greedy nearest-neighbor heuristic over great-circle distance.
//
// This is an approximation, not an optimal TSP solution: each step picks the
// closest remaining landmark and never revisits the choice. Ties are broken by
// the lexicographically smaller landmark id so identical input always yields
// an identical order.
func ComputeTour(req domain.TourRequest) (domain.TourPlan, error) {
	if err := req.Validate(); err != nil {
		return domain.TourPlan{}, fmt.Errorf("compute tour: %w", err)
	}

	points := tourPoints(req)
	plan := nearestNeighborTour(req, func(i, j int) float64 {
		return geo.DistanceMeters(points[i], points[j])
	})
	plan.Metric = MetricHaversine

	return plan, nil
}

// ComputeTourWithMatrix runs the same heuristic over walking distances from a single
// all-pairs matrix request. When the matrix cannot be fetched it falls back to ComputeTour.
func ComputeTourWithMatrix(
	ctx context.Context,
	req domain.TourRequest,
	provider ports.DistanceMatrixProvider,
) (_ domain.TourPlan, err error) {
	defer obs.Time(ctx, "tour.ComputeWithMatrix")(&err)

	if err := req.Validate(); err != nil {
		return domain.TourPlan{}, fmt.Errorf("compute tour: %w", err)
	}

	points := tourPoints(req)
	matrix, err := provider.GetMatrix(ctx, points)
	if err == nil {
		err = checkMatrix(matrix, len(points))
	}
	if err != nil {
		slog.WarnContext(ctx, "walking matrix unavailable, using great-circle distance",
			"landmarks", len(req.Landmarks), "error", err)
		return ComputeTour(req)
	}

	plan := nearestNeighborTour(req, func(i, j int) float64 {
		return matrix[i][j].DistanceMeters
	})
	plan.Metric = MetricWalking

	return plan, nil
}

// tourPoints lays out the origin at index 0 followed by the landmarks in request order.
func tourPoints(req domain.TourRequest) []domain.Coordinate {
	points := make([]domain.Coordinate, 0, 1+len(req.Landmarks))
	points = append(points, req.Origin)
	for _, lm := range req.Landmarks {
		points = append(points, lm.Coordinate)
	}
	return points
}

func checkMatrix(m [][]ports.DistanceResult, n int) error {
	if len(m) != n {
		return fmt.Errorf("matrix has %d rows, want %d", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for j, r := range row {
			if i != j && (math.IsNaN(r.DistanceMeters) || r.DistanceMeters < 0) {
				return fmt.Errorf("matrix cell %d->%d is unroutable", i, j)
			}
		}
	}
	return nil
}

// nearestNeighborTour is O(n²) in landmark count, fine for the tens of stops a tour holds.
// cost(i, j) takes indexes into tourPoints.
func nearestNeighborTour(req domain.TourRequest, cost func(i, j int) float64) domain.TourPlan {
	// Candidates are visited in id order so the tie-break only needs a strict comparison.
	remaining := make([]int, len(req.Landmarks))
	for i := range remaining {
		remaining[i] = i
	}
	sort.Slice(remaining, func(a, b int) bool {
		return req.Landmarks[remaining[a]].ID < req.Landmarks[remaining[b]].ID
	})

	stops := make([]domain.Landmark, 0, len(req.Landmarks))
	legs := make([]float64, 0, len(req.Landmarks))
	total := 0.0
	current := 0 // origin

	for len(remaining) > 0 {
		best := -1
		bestDistance := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for pos, li := range remaining {
			d := cost(current, li+1)
			if best == -1 || d < bestDistance-tieTolerance {
				best = pos
				bestDistance = d
			}
		}

		li := remaining[best]
		stops = append(stops, req.Landmarks[li])
		legs = append(legs, bestDistance)
		total += bestDistance

		remaining = append(remaining[:best], remaining[best+1:]...)
		current = li + 1
	}

	return domain.TourPlan{
		Origin:               req.Origin,
		OrderedStops:         stops,
		TotalDistanceMeters:  total,
		PerLegDistanceMeters: legs,
	}
}
