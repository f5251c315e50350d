package service

import (
	"math"

	"github.com/shiva/wayfarer/pkg/geo"
)

// ─── Fare Configuration ─────────────────────────────────────

// FareConfig holds the pricing parameters, in dollars.
type FareConfig struct {
	RideshareBase    float64 // Flat pickup fare.
	RidesharePerMile float64 // Rate per mile.
	TransitFlat      float64 // Fixed transit fare regardless of distance.
}

// DefaultFareConfig returns the fares used for every estimate.
func DefaultFareConfig() FareConfig {
	return FareConfig{
		RideshareBase:    3.00,
		RidesharePerMile: 2.20,
		TransitFlat:      TransitFixedCost,
	}
}

// TransitFixedCost is the flat fare of a fixed-fare transit system.
const TransitFixedCost = 2.90

// ─── Estimates ──────────────────────────────────────────────

// RideshareCost returns base + miles × per-mile, rounded half-up to the cent.
func (c FareConfig) RideshareCost(distanceMeters float64) float64 {
	return roundCents(c.RideshareBase + geo.MetersToMiles(distanceMeters)*c.RidesharePerMile)
}

// RideshareCost prices a distance with DefaultFareConfig.
//
//	RideshareCost(0) = 3.00
func RideshareCost(distanceMeters float64) float64 {
	return DefaultFareConfig().RideshareCost(distanceMeters)
}

// roundCents rounds half-up on the cent. The small epsilon absorbs binary
// representation error so that 3.665 rounds to 3.67.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}
