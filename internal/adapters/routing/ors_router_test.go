package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"landmark-tour-service/internal/domain"
)

const sampleDirections = `{
  "type": "FeatureCollection",
  "features": [{
    "geometry": {"type": "LineString", "coordinates": [[77.5900, 12.9700], [77.5905, 12.9704], [77.5910, 12.9710], [77.5915, 12.9712]]},
    "properties": {
      "summary": {"distance": 210.5, "duration": 151.6},
      "segments": [{
        "distance": 210.5,
        "duration": 151.6,
        "steps": [
          {"instruction": "Head north on Lalbagh Road", "distance": 80.2, "way_points": [0, 1]},
          {"instruction": "Turn right", "distance": 130.3, "way_points": [1, 3]},
          {"instruction": "Arrive at Glass House", "distance": 0, "way_points": [3, 3]}
        ]
      }]
    }
  }]
}`

type orsStub struct {
	mu       sync.Mutex
	profiles []string
	auth     []string
	handle   func(w http.ResponseWriter, r *http.Request, profile string)
}

func (s *orsStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	profile := ""
	if len(parts) >= 3 {
		profile = parts[2]
	}

	s.mu.Lock()
	s.profiles = append(s.profiles, profile)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.mu.Unlock()

	s.handle(w, r, profile)
}

func (s *orsStub) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.profiles...)
}

func newTestRouter(t *testing.T, stub *orsStub, timeout time.Duration, attempts int) *ORSRouter {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	r, err := NewORSRouter(Options{APIKey: "test-key", BaseURL: srv.URL, Timeout: timeout, MaxAttempts: attempts})
	if err != nil {
		t.Fatalf("NewORSRouter: %v", err)
	}
	r.backoff = time.Millisecond
	return r
}

var (
	from = domain.Coordinate{Latitude: 12.9700, Longitude: 77.5900}
	to   = domain.Coordinate{Latitude: 12.9712, Longitude: 77.5915}
)

func TestFetchSegmentFirstModeSucceeds(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		var body directionsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Coordinates) != 2 || body.Coordinates[0][0] != from.Longitude || body.Coordinates[0][1] != from.Latitude {
			t.Errorf("coordinates not sent as [lon,lat]: %v", body.Coordinates)
		}
		_, _ = w.Write([]byte(sampleDirections))
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	seg, err := router.FetchSegment(context.Background(), from, to, domain.DefaultModePreference)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seg.Mode != domain.ModeWalking {
		t.Fatalf("mode = %q, want walking", seg.Mode)
	}
	if got := stub.requested(); len(got) != 1 || got[0] != "foot-walking" {
		t.Fatalf("profiles requested = %v", got)
	}
	stub.mu.Lock()
	auth := stub.auth[0]
	stub.mu.Unlock()
	if auth != "test-key" {
		t.Fatalf("authorization header = %q", auth)
	}
	if len(seg.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(seg.Steps))
	}

	wantAnchor := domain.Coordinate{Latitude: 12.9704, Longitude: 77.5905}
	if seg.Steps[1].Anchor != wantAnchor {
		t.Fatalf("step 1 anchor = %+v, want %+v", seg.Steps[1].Anchor, wantAnchor)
	}
	if seg.Steps[1].Instruction != "Turn right" || seg.Steps[1].DistanceMeters != 130.3 {
		t.Fatalf("step 1 = %+v", seg.Steps[1])
	}
	if seg.From != from || seg.To != to {
		t.Fatalf("segment endpoints not set: %+v -> %+v", seg.From, seg.To)
	}
	if len(seg.Geometry) != 4 || seg.DistanceMeters != 210.5 {
		t.Fatalf("geometry=%d distance=%v", len(seg.Geometry), seg.DistanceMeters)
	}
}

func TestFetchSegmentFallsThroughModes(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		switch profile {
		case "foot-walking":
			_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
		case "foot-hiking":
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(sampleDirections))
		}
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	seg, err := router.FetchSegment(context.Background(), from, to, domain.DefaultModePreference)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Mode != domain.ModeCycling {
		t.Fatalf("mode = %q, want cycling", seg.Mode)
	}

	want := []string{"foot-walking", "foot-hiking", "cycling-regular"}
	got := stub.requested()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("profiles requested = %v, want %v", got, want)
	}
}

func TestFetchSegmentTimeoutFallsThrough(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		if profile == "foot-walking" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(sampleDirections))
	}}
	router := newTestRouter(t, stub, 50*time.Millisecond, 1)

	seg, err := router.FetchSegment(context.Background(), from, to, []domain.TravelMode{domain.ModeWalking, domain.ModeHiking})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Mode != domain.ModeHiking {
		t.Fatalf("mode = %q, want hiking", seg.Mode)
	}
}

func TestFetchSegmentAllModesFail(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	_, err := router.FetchSegment(context.Background(), from, to, domain.DefaultModePreference)
	if !errors.Is(err, domain.ErrSegmentUnavailable) {
		t.Fatalf("err = %v, want ErrSegmentUnavailable", err)
	}
	if got := stub.requested(); len(got) != 4 {
		t.Fatalf("expected one request per mode, got %v", got)
	}
}

func TestFetchSegmentGeometryWithoutSteps(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[77.59,12.97],[77.5915,12.9712]]},"properties":{"segments":[]}}]}`))
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	seg, err := router.FetchSegment(context.Background(), from, to, []domain.TravelMode{domain.ModeWalking})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Steps == nil || len(seg.Steps) != 0 {
		t.Fatalf("steps = %v, want empty non-nil list", seg.Steps)
	}
}

func TestFetchSegmentMalformedWayPointFallsThrough(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		if profile == "foot-walking" {
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[77.59,12.97]]},"properties":{"segments":[{"steps":[{"instruction":"Go","distance":5,"way_points":[7,8]}]}]}}]}`))
			return
		}
		_, _ = w.Write([]byte(sampleDirections))
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	seg, err := router.FetchSegment(context.Background(), from, to, []domain.TravelMode{domain.ModeWalking, domain.ModeDriving})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Mode != domain.ModeDriving {
		t.Fatalf("mode = %q, want driving", seg.Mode)
	}
}

func TestFetchSegmentRetriesTransientFailures(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(sampleDirections))
	}}
	router := newTestRouter(t, stub, time.Second, 3)

	seg, err := router.FetchSegment(context.Background(), from, to, []domain.TravelMode{domain.ModeWalking})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seg.Mode != domain.ModeWalking || calls != 2 {
		t.Fatalf("mode=%q calls=%d, want walking after 2 calls", seg.Mode, calls)
	}
}

func TestGetMatrix(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		if !strings.HasPrefix(r.URL.Path, "/v2/matrix/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body matrixRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Locations) != 2 {
			t.Errorf("locations = %d, want 2", len(body.Locations))
		}
		_, _ = w.Write([]byte(`{"distances":[[0,120.5],[118.2,0]],"durations":[[0,90],[85,0]]}`))
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	m, err := router.GetMatrix(context.Background(), []domain.Coordinate{from, to})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[0][1].DistanceMeters != 120.5 || m[1][0].DurationSeconds != 85 {
		t.Fatalf("matrix = %+v", m)
	}
	if got := stub.requested(); got[0] != "foot-walking" {
		t.Fatalf("matrix profile = %v", got)
	}
}

func TestGetMatrixRejectsNullCells(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		_, _ = w.Write([]byte(`{"distances":[[0,null],[1,0]],"durations":[[0,1],[1,0]]}`))
	}}
	router := newTestRouter(t, stub, time.Second, 1)

	if _, err := router.GetMatrix(context.Background(), []domain.Coordinate{from, to}); err == nil {
		t.Fatalf("expected error for null cell")
	}
}

func TestNewORSRouterRequiresKey(t *testing.T) {
	if _, err := NewORSRouter(Options{APIKey: " "}); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	stub := &orsStub{handle: func(w http.ResponseWriter, r *http.Request, profile string) {
		http.Error(w, `{"error":"bad coordinates"}`, http.StatusBadRequest)
	}}
	router := newTestRouter(t, stub, time.Second, 3)

	_, err := router.fetchDirections(context.Background(), "foot-walking", from, to)
	var ue *upstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusBadRequest {
		t.Fatalf("err = %v, want upstreamError 400", err)
	}
	if !strings.Contains(ue.Detail, "bad coordinates") {
		t.Fatalf("detail = %q", ue.Detail)
	}
	if got := stub.requested(); len(got) != 1 {
		t.Fatalf("requests = %v, want exactly one", got)
	}
}
