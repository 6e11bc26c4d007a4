package routing

import (
	"context"
	"fmt"
	"sync"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/ports"
)

// MockRoute is a canned reply for one (from, to, mode) request.
type MockRoute struct {
	From, To domain.Coordinate
	Mode     domain.TravelMode
	Steps    []domain.Step
	Err      error
}

// MockRouter serves canned segments and records every request it receives.
type MockRouter struct {
	mu     sync.Mutex
	routes map[string]MockRoute
	calls  []domain.TravelMode
}

func NewMockRouter(routes []MockRoute) *MockRouter {
	m := make(map[string]MockRoute, len(routes))
	for _, r := range routes {
		m[segmentKey(r.From, r.To, r.Mode)] = r
	}
	return &MockRouter{routes: m}
}

func (p *MockRouter) FetchSegment(
	ctx context.Context,
	from, to domain.Coordinate,
	modes []domain.TravelMode,
) (domain.NavigationSegment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, mode := range modes {
		p.calls = append(p.calls, mode)
		r, ok := p.routes[segmentKey(from, to, mode)]
		if !ok || r.Err != nil {
			continue
		}
		return domain.NavigationSegment{From: from, To: to, Mode: mode, Steps: r.Steps}, nil
	}

	return domain.NavigationSegment{}, fmt.Errorf("missing route %v -> %v: %w", from, to, domain.ErrSegmentUnavailable)
}

// Calls returns the modes requested so far, in order.
func (p *MockRouter) Calls() []domain.TravelMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TravelMode(nil), p.calls...)
}

// MockMatrixProvider returns a fixed matrix or error.
type MockMatrixProvider struct {
	Matrix [][]ports.DistanceResult
	Err    error
	Calls  int
}

func (p *MockMatrixProvider) GetMatrix(ctx context.Context, locations []domain.Coordinate) ([][]ports.DistanceResult, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Matrix, nil
}
