package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{"valid", Coordinate{Latitude: 12.95, Longitude: 77.58}, false},
		{"poles and antimeridian", Coordinate{Latitude: -90, Longitude: 180}, false},
		{"latitude out of range", Coordinate{Latitude: 90.1, Longitude: 0}, true},
		{"longitude out of range", Coordinate{Latitude: 0, Longitude: -180.5}, true},
		{"NaN latitude", Coordinate{Latitude: math.NaN(), Longitude: 0}, true},
		{"NaN longitude", Coordinate{Latitude: 0, Longitude: math.NaN()}, true},
		{"infinite latitude", Coordinate{Latitude: math.Inf(1), Longitude: 0}, true},
		{"infinite longitude", Coordinate{Latitude: 0, Longitude: math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("err = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
