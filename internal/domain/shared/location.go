// Package shared holds the value objects the rest of the domain is built on:
// geographic locations, vehicles, and the simulated-clock helpers.
package shared

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// Location is a geographic point in decimal degrees.
type Location struct {
	Lat float64
	Lng float64
}

// DistanceTo returns the great-circle (haversine) distance to other in
// meters.
func (l Location) DistanceTo(other Location) float64 {
	dLat := degreesToRadians(other.Lat - l.Lat)
	dLng := degreesToRadians(other.Lng - l.Lng)

	rLat1 := degreesToRadians(l.Lat)
	rLat2 := degreesToRadians(other.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Equal reports whether both locations are the exact same point.
func (l Location) Equal(other Location) bool {
	return l.Lat == other.Lat && l.Lng == other.Lng
}

func (l Location) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", l.Lat, l.Lng)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
