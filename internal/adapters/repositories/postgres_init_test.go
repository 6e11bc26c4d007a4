package repositories

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landmarks.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestParseSeeds(t *testing.T) {
	path := writeSeed(t, `[
	  {"place_id": "lalbagh", "place_name": " Lalbagh Botanical Garden ", "landmarks": [
	    {"landmark": " Glass House ", "latitude": 12.9507, "longitude": 77.5848, "description": "Built in 1889. "},
	    {"landmark": "Lotus Pond", "latitude": 12.9499, "longitude": 77.5839}
	  ]}
	]`)

	seeds, err := ParseSeeds(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeds) != 1 || seeds[0].PlaceName != "Lalbagh Botanical Garden" {
		t.Fatalf("seeds = %+v", seeds)
	}
	if seeds[0].Landmarks[0].Landmark != "Glass House" || seeds[0].Landmarks[0].Description != "Built in 1889." {
		t.Fatalf("landmark not trimmed: %+v", seeds[0].Landmarks[0])
	}
}

func TestParseSeedsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{`, want: "parse json"},
		{name: "missing place id", body: `[{"place_name": "X"}]`, want: "cannot be empty"},
		{name: "blank landmark", body: `[{"place_id": "p", "place_name": "P", "landmarks": [{"landmark": " "}]}]`, want: "name cannot be empty"},
		{name: "bad latitude", body: `[{"place_id": "p", "place_name": "P", "landmarks": [{"landmark": "L", "latitude": 95}]}]`, want: "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeeds(writeSeed(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
