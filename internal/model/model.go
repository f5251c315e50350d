// Package model contains domain models for trip planning.
// Plan maps to the `plans` table created by pkg/db/schema.sql; the rest are
// request/response values exchanged with providers and API clients.
package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

type Vibe string

const (
	VibeChill    Vibe = "chill"
	VibeParty    Vibe = "party"
	VibeQuiet    Vibe = "quiet"
	VibeOutdoors Vibe = "outdoors"
)

// Valid reports whether v is one of the known vibes. The empty vibe is
// "no preference" and is not valid.
func (v Vibe) Valid() bool {
	switch v {
	case VibeChill, VibeParty, VibeQuiet, VibeOutdoors:
		return true
	}
	return false
}

type Budget string

const (
	BudgetLow  Budget = "low"
	BudgetMed  Budget = "med"
	BudgetHigh Budget = "high"
)

func (b Budget) Valid() bool {
	switch b {
	case BudgetLow, BudgetMed, BudgetHigh:
		return true
	}
	return false
}

type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

// ─── Location ───────────────────────────────────────────────

// Coordinate is a WGS-84 point. Ranges are not enforced here.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ─── Directions ─────────────────────────────────────────────

// RouteLeg is the resolved distance/time/cost for one travel mode.
// Driving legs carry CostRideshare, transit legs carry CostTransit, never both.
type RouteLeg struct {
	DistanceMeters  float64  `json:"distance_meters"`
	DurationSeconds float64  `json:"duration_seconds"`
	CostRideshare   *float64 `json:"cost_rideshare,omitempty"`
	CostTransit     *float64 `json:"cost_transit,omitempty"`
}

// DirectionsResult merges the legs resolved for one origin/destination pair.
// Fallback is true iff Driving is the synthetic estimate.
type DirectionsResult struct {
	Driving  *RouteLeg `json:"driving,omitempty"`
	Transit  *RouteLeg `json:"transit,omitempty"`
	Fallback bool      `json:"fallback"`
}

// ─── Catalog & Itineraries ──────────────────────────────────

// PlaceCandidate is one entry of a city catalog. IDs are unique per catalog.
type PlaceCandidate struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Tags      []string    `json:"tags"`
	PriceTier int         `json:"price_tier"`
	Location  *Coordinate `json:"location,omitempty"`
}

// ItineraryConstraints are the user's planning preferences. Every field is
// optional.
type ItineraryConstraints struct {
	StartLocation string `json:"start_location,omitempty"`
	Vibe          Vibe   `json:"vibe,omitempty"`
	Budget        Budget `json:"budget,omitempty"`
	HoursOutside  int    `json:"hours_outside,omitempty"`
}

// ItineraryOption is one proposed visit order. PlaceIDs order is the visit
// sequence.
type ItineraryOption struct {
	PlaceIDs       []string `json:"place_ids"`
	Name           string   `json:"name,omitempty"`
	PriceBreakdown string   `json:"price_breakdown,omitempty"`
}

// ItineraryOptions is the planner's result.
type ItineraryOptions struct {
	Options []ItineraryOption `json:"options"`
}

// ─── Plans ──────────────────────────────────────────────────

// Plan maps to the `plans` table. A profile has at most one active plan.
type Plan struct {
	ProfileID  string    `json:"profile_id"`
	PlaceIDs   []string  `json:"place_ids"`
	Name       string    `json:"name,omitempty"`
	EventIDs   []string  `json:"event_ids,omitempty"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// ─── Planning sessions ──────────────────────────────────────

type SessionState string

const (
	StateForm       SessionState = "form"
	StateGenerating SessionState = "generating"
	StateResults    SessionState = "results"
	StateViewing    SessionState = "viewing"
)

// SessionOption is a generated option the user may cross out.
type SessionOption struct {
	ItineraryOption
	Included bool `json:"included"`
}

// PlanningSession is the state of one planning modal.
type PlanningSession struct {
	ID          string               `json:"id"`
	ProfileID   string               `json:"profile_id"`
	City        string               `json:"city"`
	State       SessionState         `json:"state"`
	Constraints ItineraryConstraints `json:"constraints"`
	Options     []SessionOption      `json:"options,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ─── Plan routing ───────────────────────────────────────────

// PlanLeg is one hop of an accepted plan.
type PlanLeg struct {
	FromID     string           `json:"from_id,omitempty"` // empty for the origin leg
	ToID       string           `json:"to_id"`
	Directions DirectionsResult `json:"directions"`
}

// PlanRoute totals the legs of a plan. TransitCost sums transit legs only.
// StraightLineMeters is the great-circle length through the same stops.
type PlanRoute struct {
	Legs                   []PlanLeg `json:"legs"`
	StraightLineMeters     float64   `json:"straight_line_meters"`
	DrivingDistanceMeters  float64   `json:"driving_distance_meters"`
	DrivingDurationSeconds float64   `json:"driving_duration_seconds"`
	RideshareCost          float64   `json:"rideshare_cost"`
	TransitCost            float64   `json:"transit_cost"`
	Estimated              bool      `json:"estimated"`
}
