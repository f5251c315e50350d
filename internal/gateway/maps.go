package gateway

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/shiva/wayfarer/internal/model"
)

// MapsDirections queries the Google Directions API directly, one travel
// mode per call.
type MapsDirections struct {
	client *maps.Client
}

// NewMapsDirections builds a directions client. It refuses unusable keys so
// that callers never issue a request that is bound to be rejected.
func NewMapsDirections(apiKey string, opts ...maps.ClientOption) (*MapsDirections, error) {
	if !UsableAPIKey(apiKey) {
		return nil, ErrUnusableKey
	}

	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &MapsDirections{client: client}, nil
}

// Directions returns the first route for mode. A provider error and an
// empty route list are both reported, the latter as ErrNoRoute.
func (m *MapsDirections) Directions(
	ctx context.Context,
	origin, destination model.Coordinate,
	mode model.TravelMode,
) (Measure, error) {
	req := &maps.DirectionsRequest{
		Origin:      FormatLatLng(origin),
		Destination: FormatLatLng(destination),
		Mode:        travelMode(mode),
	}

	routes, _, err := m.client.Directions(ctx, req)
	if err != nil {
		return Measure{}, fmt.Errorf("maps directions (%s): %w", mode, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Measure{}, ErrNoRoute
	}

	var out Measure
	for _, leg := range routes[0].Legs {
		out.DistanceMeters += float64(leg.Distance.Meters)
		out.DurationSeconds += leg.Duration.Seconds()
	}
	return out, nil
}

func travelMode(mode model.TravelMode) maps.Mode {
	if mode == model.ModeTransit {
		return maps.TravelModeTransit
	}
	return maps.TravelModeDriving
}
