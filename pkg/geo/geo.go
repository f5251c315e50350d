// Package geo provides geographic utility functions for trip planning.
//
// Distances use the haversine formula on a spherical Earth (s2 LatLng
// distance). Travel time is estimated from a constant average speed and is
// only used when no directions provider answered.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/shiva/wayfarer/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusM is the mean radius of Earth in meters.
	EarthRadiusM = 6_371_000.0

	// MetersPerMile converts meters to statute miles.
	MetersPerMile = 1609.34

	// AverageSpeedMph is the assumed city driving speed for synthetic legs.
	AverageSpeedMph = 20.0
)

// ─── Distance ───────────────────────────────────────────────

// DistanceMeters returns the great-circle distance between two points in meters.
// Equal points yield exactly 0 and the result is symmetric in its arguments.
//
// Complexity: O(1)
func DistanceMeters(a, b model.Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusM
}

// MetersToMiles converts a distance in meters to miles.
func MetersToMiles(m float64) float64 {
	return m / MetersPerMile
}

// ─── Time ───────────────────────────────────────────────────

// EstimateDrivingSeconds returns the travel time for a distance at
// AverageSpeedMph.
func EstimateDrivingSeconds(distanceMeters float64) float64 {
	return MetersToMiles(distanceMeters) / AverageSpeedMph * 3600
}

// ─── Route Calculations ─────────────────────────────────────

// RouteDistanceMeters returns the total distance of an ordered route.
//
// Complexity: O(S) where S = number of stops.
func RouteDistanceMeters(route []model.Coordinate) float64 {
	total := 0.0
	for i := 0; i < len(route)-1; i++ {
		total += DistanceMeters(route[i], route[i+1])
	}
	return total
}
