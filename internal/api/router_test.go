package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"landmark-tour-service/internal/adapters/routing"
	"landmark-tour-service/internal/adapters/session"
	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/navigation"
	"landmark-tour-service/internal/ports"
	"landmark-tour-service/internal/services"
)

type stubPlaceRepo struct{}

var cubbon = domain.Place{ID: "cubbon", Name: "Cubbon Park"}

var bandstand = domain.Landmark{
	ID:          "Bandstand",
	Coordinate:  domain.Coordinate{Latitude: 12.9763, Longitude: 77.5929},
	Description: "Victorian bandstand.",
}

func (stubPlaceRepo) LandmarksInBox(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]ports.PlacedLandmark, error) {
	return []ports.PlacedLandmark{{Place: cubbon, Landmark: bandstand}}, nil
}

func (stubPlaceRepo) ListLandmarks(ctx context.Context, placeID string) ([]domain.Landmark, error) {
	if placeID != cubbon.ID {
		return nil, nil
	}
	return []domain.Landmark{bandstand}, nil
}

func (stubPlaceRepo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	return []domain.Place{cubbon}, nil
}

type discardPublisher struct{}

func (discardPublisher) Publish(ctx context.Context, sessionID, kind string, payload any) error {
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	origin := domain.Coordinate{Latitude: 12.9750, Longitude: 77.5920}
	router := routing.NewMockRouter([]routing.MockRoute{{
		From:  origin,
		To:    bandstand.Coordinate,
		Mode:  domain.ModeWalking,
		Steps: []domain.Step{{Instruction: "Head north", DistanceMeters: 150, Anchor: origin}},
	}})

	places := services.NewPlaceService(stubPlaceRepo{}, 5000)
	tours := services.NewTourService(
		session.NewRedisTourStore(client, time.Hour),
		router,
		discardPublisher{},
		navigation.DefaultPolicy(),
		services.MetricHaversine,
	)
	t.Cleanup(func() { tours.Shutdown(context.Background()) })

	srv := httptest.NewServer(NewRouter(places, tours))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	out := map[string]any{}
	if res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return res, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	res, body := do(t, srv, http.MethodGet, "/health", "")
	if res.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", res.StatusCode, body)
	}
	if res.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", res.Header.Get("Content-Type"))
	}
}

func TestPlaceEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{"identify", http.MethodPost, "/places/identify", `{"latitude":12.9760,"longitude":77.5925}`, http.StatusOK, "placeId"},
		{"identify bad latitude", http.MethodPost, "/places/identify", `{"latitude":120,"longitude":77.5}`, http.StatusBadRequest, "error"},
		{"identify unknown field", http.MethodPost, "/places/identify", `{"lat":12.9}`, http.StatusBadRequest, "error"},
		{"identify far away", http.MethodPost, "/places/identify", `{"latitude":48.85,"longitude":2.35}`, http.StatusNotFound, "error"},
		{"search", http.MethodGet, "/places/search?name=cubbon", "", http.StatusOK, "landmarks"},
		{"search blank", http.MethodGet, "/places/search?name=", "", http.StatusBadRequest, "error"},
		{"search unknown", http.MethodGet, "/places/search?name=mysore", "", http.StatusNotFound, "error"},
		{"suggest", http.MethodGet, "/places/suggest?q=cu", "", http.StatusOK, "places"},
		{"landmarks", http.MethodGet, "/places/cubbon/landmarks", "", http.StatusOK, "landmarks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := do(t, srv, tt.method, tt.path, tt.body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", res.StatusCode, tt.wantStatus, body)
			}
			if _, ok := body[tt.wantKey]; !ok {
				t.Fatalf("body %v has no %q", body, tt.wantKey)
			}
		})
	}
}

func TestTourLifecycle(t *testing.T) {
	srv := newTestServer(t)

	res, body := do(t, srv, http.MethodPost, "/tours", `{"origin":{"latitude":12.9750,"longitude":77.5920},"landmarks":[]}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty tour status = %d, want 400", res.StatusCode)
	}

	res, body = do(t, srv, http.MethodPost, "/tours",
		`{"origin":{"latitude":12.9750,"longitude":77.5920},"landmarks":[{"landmark":"Bandstand","latitude":12.9763,"longitude":77.5929}]}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d (%v)", res.StatusCode, body)
	}
	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatalf("no session id in %v", body)
	}
	base := "/tours/" + id

	if res, _ := do(t, srv, http.MethodGet, base, ""); res.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", res.StatusCode)
	}
	if res, _ := do(t, srv, http.MethodGet, "/tours/nope", ""); res.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown status = %d", res.StatusCode)
	}
	if res, _ := do(t, srv, http.MethodGet, base+"/navigation", ""); res.StatusCode != http.StatusNotFound {
		t.Fatalf("snapshot before start status = %d", res.StatusCode)
	}

	res, body = do(t, srv, http.MethodPost, base+"/navigation", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d (%v)", res.StatusCode, body)
	}
	if body["session_id"] != id {
		t.Fatalf("snapshot = %v", body)
	}

	if res, _ := do(t, srv, http.MethodPost, base+"/continue", ""); res.StatusCode != http.StatusConflict {
		t.Fatalf("continue while navigating status = %d, want 409", res.StatusCode)
	}
	if res, _ := do(t, srv, http.MethodPost, base+"/positions", `{"latitude":-91,"longitude":0}`); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad position status = %d", res.StatusCode)
	}
	if res, _ := do(t, srv, http.MethodPost, base+"/positions", `{"latitude":12.9751,"longitude":77.5920}`); res.StatusCode != http.StatusOK {
		t.Fatalf("position status = %d", res.StatusCode)
	}

	res, body = do(t, srv, http.MethodPost, base+"/positions", `{"error":"gps off"}`)
	if res.StatusCode != http.StatusOK || body["position_error"] == nil {
		t.Fatalf("position error = %d %v", res.StatusCode, body)
	}

	res, body = do(t, srv, http.MethodPost, base+"/mute", `{"muted":true}`)
	if res.StatusCode != http.StatusOK || body["muted"] != true {
		t.Fatalf("mute = %d %v", res.StatusCode, body)
	}

	res, body = do(t, srv, http.MethodPost, base+"/narration/ack", "")
	if res.StatusCode != http.StatusOK || body["acknowledged"] != false {
		t.Fatalf("ack = %d %v", res.StatusCode, body)
	}

	if res, _ := do(t, srv, http.MethodDelete, base, ""); res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", res.StatusCode)
	}
	if res, _ := do(t, srv, http.MethodGet, base, ""); res.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", res.StatusCode)
	}
}
