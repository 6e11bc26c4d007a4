package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinate in degrees (WGS 84).
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate lies within the valid degree ranges.
func (c Coordinate) Validate() error {
	if !finite(c.Latitude) || !finite(c.Longitude) {
		return fmt.Errorf("coordinate (%v, %v) is not a finite number: %w", c.Latitude, c.Longitude, ErrInvalidRequest)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", c.Latitude, ErrInvalidRequest)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", c.Longitude, ErrInvalidRequest)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinate) CoordsToList() []float64 { return []float64{c.Longitude, c.Latitude} }

// CoordinateFromList parses a GeoJSON [lon, lat(, alt)] position.
func CoordinateFromList(p []float64) (Coordinate, error) {
	if len(p) < 2 {
		return Coordinate{}, fmt.Errorf("position must have at least 2 values, got %d", len(p))
	}
	c := Coordinate{Latitude: p[1], Longitude: p[0]}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}
