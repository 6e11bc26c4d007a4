package geo

import (
	"math"

	"landmark-tour-service/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used by every distance in the service.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the haversine great-circle distance between a and b.
// It is symmetric and DistanceMeters(a, a) == 0.
func DistanceMeters(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h marginally past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// BoundingBox returns a box around c with the given radius in meters.
func BoundingBox(c domain.Coordinate, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	cosLat := math.Cos(toRad(c.Latitude))
	if cosLat < 1e-6 {
		return c.Latitude - latDelta, -180, c.Latitude + latDelta, 180
	}
	lonDelta := radiusMeters / (111320.0 * cosLat)

	return c.Latitude - latDelta, c.Longitude - lonDelta, c.Latitude + latDelta, c.Longitude + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
