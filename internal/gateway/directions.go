package gateway

import (
	"encoding/json"
	"strconv"

	"github.com/shiva/wayfarer/internal/model"
)

// Measure is the distance and duration of the first route for one mode.
type Measure struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// ModeMeasures holds whatever modes an upstream could resolve.
type ModeMeasures struct {
	Driving *Measure
	Transit *Measure
}

// directionsEnvelope is the Google Directions JSON response, reduced to
// the fields the planner reads.
type directionsEnvelope struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// measureFromEnvelope sums the legs of the first route. It fails on null,
// malformed or non-OK envelopes and on routes without legs.
func measureFromEnvelope(raw json.RawMessage) (*Measure, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrNoRoute
	}

	var env directionsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedBody
	}
	if env.Status != "OK" || len(env.Routes) == 0 || len(env.Routes[0].Legs) == 0 {
		return nil, ErrNoRoute
	}

	m := &Measure{}
	for _, leg := range env.Routes[0].Legs {
		m.DistanceMeters += leg.Distance.Value
		m.DurationSeconds += leg.Duration.Value
	}
	if m.DistanceMeters < 0 || m.DurationSeconds < 0 {
		return nil, ErrMalformedBody
	}
	return m, nil
}

// FormatLatLng renders a coordinate as the "lat,lng" query form used by the
// provider and the relay.
func FormatLatLng(c model.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
