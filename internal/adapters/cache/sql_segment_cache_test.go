package cache

import (
	"context"
	"testing"

	"landmark-tour-service/internal/domain"
)

func TestCoordKeyRoundsToMicroDegrees(t *testing.T) {
	tests := []struct {
		name             string
		c                domain.Coordinate
		wantLat, wantLon int64
	}{
		{"exact", domain.Coordinate{Latitude: 12.950700, Longitude: 77.584800}, 12950700, 77584800},
		{"rounds up", domain.Coordinate{Latitude: 12.9507004, Longitude: 77.5848006}, 12950700, 77584801},
		{"negative", domain.Coordinate{Latitude: -33.8688, Longitude: -151.2093}, -33868800, -151209300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := coordKey(tt.c)
			if lat != tt.wantLat || lon != tt.wantLon {
				t.Fatalf("coordKey = (%d, %d), want (%d, %d)", lat, lon, tt.wantLat, tt.wantLon)
			}
		})
	}
}

func TestNilDBFails(t *testing.T) {
	c := &SQLSegmentCache{}
	ctx := context.Background()

	if _, _, err := c.Get(ctx, domain.Coordinate{}, domain.Coordinate{}, domain.ModeWalking); err == nil {
		t.Fatalf("Get with nil DB should fail")
	}
	if err := c.Put(ctx, domain.NavigationSegment{Mode: domain.ModeWalking}); err == nil {
		t.Fatalf("Put with nil DB should fail")
	}
}
