package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"landmark-tour-service/internal/adapters/routing"
	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/ports"
)

func lm(id string, lat, lon float64) domain.Landmark {
	return domain.Landmark{ID: id, Coordinate: domain.Coordinate{Latitude: lat, Longitude: lon}}
}

func stopIDs(plan domain.TourPlan) []string {
	ids := make([]string, 0, len(plan.OrderedStops))
	for _, s := range plan.OrderedStops {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestComputeTourNearestNeighbor(t *testing.T) {
	req := domain.TourRequest{
		Origin:    domain.Coordinate{},
		Landmarks: []domain.Landmark{lm("B", 0, 2), lm("A", 0, 1)},
	}

	plan, err := ComputeTour(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := stopIDs(plan)
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("ordered stops = %v, want [A B]", got)
	}
	if len(plan.PerLegDistanceMeters) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(plan.PerLegDistanceMeters))
	}
	if plan.Metric != MetricHaversine {
		t.Fatalf("metric = %q", plan.Metric)
	}
	if plan.Origin != req.Origin {
		t.Fatalf("origin not carried into plan")
	}
}

func TestComputeTourGreedyNotOptimal(t *testing.T) {
	// Nearest-first goes C, A, B and doubles back past the origin.
	req := domain.TourRequest{
		Origin: domain.Coordinate{},
		Landmarks: []domain.Landmark{
			lm("A", 0, 0.010),
			lm("B", 0, 0.030),
			lm("C", 0, -0.009),
		},
	}

	plan, err := ComputeTour(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stopIDs(plan)
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ordered stops = %v, want %v", got, want)
		}
	}
}

func TestComputeTourTieBreakByID(t *testing.T) {
	// Z and M are equidistant from the origin; M wins on id.
	req := domain.TourRequest{
		Origin:    domain.Coordinate{},
		Landmarks: []domain.Landmark{lm("Z", 0, 0.01), lm("M", 0, -0.01)},
	}

	for i := 0; i < 20; i++ {
		plan, err := ComputeTour(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.OrderedStops[0].ID != "M" {
			t.Fatalf("run %d: first stop = %q, want M", i, plan.OrderedStops[0].ID)
		}
	}
}

func TestComputeTourPermutationAndTotals(t *testing.T) {
	req := domain.TourRequest{
		Origin: domain.Coordinate{Latitude: 12.9716, Longitude: 77.5946},
		Landmarks: []domain.Landmark{
			lm("Glass House", 12.9507, 77.5848),
			lm("Bandstand", 12.9512, 77.5861),
			lm("Lotus Pond", 12.9499, 77.5839),
			lm("Main Gate", 12.9524, 77.5874),
			lm("Bonsai Garden", 12.9491, 77.5857),
		},
	}

	first, err := ComputeTour(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := make([]string, 0, len(req.Landmarks))
	for _, l := range req.Landmarks {
		in = append(in, l.ID)
	}
	out := stopIDs(first)
	sort.Strings(in)
	sort.Strings(out)
	if len(in) != len(out) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("ordered stops are not a permutation: %v vs %v", out, in)
		}
	}

	sum := 0.0
	for _, leg := range first.PerLegDistanceMeters {
		sum += leg
	}
	if math.Abs(sum-first.TotalDistanceMeters) > 1e-6 {
		t.Fatalf("total = %v, sum of legs = %v", first.TotalDistanceMeters, sum)
	}

	second, err := ComputeTour(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, b := stopIDs(first), stopIDs(second)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic order: %v vs %v", a, b)
		}
	}
	if first.TotalDistanceMeters != second.TotalDistanceMeters {
		t.Fatalf("non-deterministic total: %v vs %v", first.TotalDistanceMeters, second.TotalDistanceMeters)
	}
}

func TestComputeTourInvalidRequest(t *testing.T) {
	_, err := ComputeTour(domain.TourRequest{Origin: domain.Coordinate{}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}

	_, err = ComputeTour(domain.TourRequest{Landmarks: []domain.Landmark{lm("A", 0, 1), lm("A", 0, 2)}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("duplicate ids: err = %v, want ErrInvalidRequest", err)
	}
}

func TestComputeTourWithMatrixUsesWalkingDistances(t *testing.T) {
	// Great-circle would visit A first; the walking matrix makes B cheaper.
	req := domain.TourRequest{
		Origin:    domain.Coordinate{},
		Landmarks: []domain.Landmark{lm("A", 0, 0.001), lm("B", 0, 0.002)},
	}

	d := func(m float64) ports.DistanceResult { return ports.DistanceResult{DistanceMeters: m} }
	provider := &routing.MockMatrixProvider{
		Matrix: [][]ports.DistanceResult{
			{d(0), d(900), d(300)},
			{d(900), d(0), d(150)},
			{d(300), d(150), d(0)},
		},
	}

	plan, err := ComputeTourWithMatrix(context.Background(), req, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stopIDs(plan)
	if got[0] != "B" || got[1] != "A" {
		t.Fatalf("ordered stops = %v, want [B A]", got)
	}
	if plan.TotalDistanceMeters != 450 {
		t.Fatalf("total = %v, want 450", plan.TotalDistanceMeters)
	}
	if plan.Metric != MetricWalking {
		t.Fatalf("metric = %q", plan.Metric)
	}
	if provider.Calls != 1 {
		t.Fatalf("matrix calls = %d, want 1", provider.Calls)
	}
}

func TestComputeTourWithMatrixFallsBack(t *testing.T) {
	req := domain.TourRequest{
		Origin:    domain.Coordinate{},
		Landmarks: []domain.Landmark{lm("B", 0, 2), lm("A", 0, 1)},
	}

	tests := []struct {
		name     string
		provider *routing.MockMatrixProvider
	}{
		{name: "provider error", provider: &routing.MockMatrixProvider{Err: errors.New("boom")}},
		{name: "short matrix", provider: &routing.MockMatrixProvider{Matrix: [][]ports.DistanceResult{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputeTourWithMatrix(context.Background(), req, tt.provider)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Metric != MetricHaversine {
				t.Fatalf("metric = %q, want haversine fallback", plan.Metric)
			}
			if got := stopIDs(plan); got[0] != "A" {
				t.Fatalf("ordered stops = %v", got)
			}
		})
	}
}
