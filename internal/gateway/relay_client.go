package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shiva/wayfarer/internal/model"
)

// RelayClient talks to the same-origin relay, which attaches server-held
// keys and passes provider JSON through unchanged.
type RelayClient struct {
	baseURL string
	client  *http.Client
}

// NewRelayClient returns a client for the relay at baseURL.
func NewRelayClient(baseURL string, client *http.Client) *RelayClient {
	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// relayDirectionsResponse is the combined body of GET /directions.
type relayDirectionsResponse struct {
	Driving json.RawMessage `json:"driving"`
	Transit json.RawMessage `json:"transit"`
}

// Directions fetches driving and transit in one request. An error means the
// relay itself failed; a mode the relay could not route is left nil.
func (c *RelayClient) Directions(ctx context.Context, origin, destination model.Coordinate) (ModeMeasures, error) {
	q := url.Values{}
	q.Set("origin", FormatLatLng(origin))
	q.Set("destination", FormatLatLng(destination))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/directions?"+q.Encode(), nil)
	if err != nil {
		return ModeMeasures{}, fmt.Errorf("relay directions: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := do(c.client, req)
	if err != nil {
		return ModeMeasures{}, fmt.Errorf("relay directions: %w", err)
	}

	var resp relayDirectionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ModeMeasures{}, fmt.Errorf("relay directions: %w", ErrMalformedBody)
	}

	var out ModeMeasures
	if m, err := measureFromEnvelope(resp.Driving); err == nil {
		out.Driving = m
	}
	if m, err := measureFromEnvelope(resp.Transit); err == nil {
		out.Transit = m
	}
	return out, nil
}

// Generate posts a generative-text request body to the relay and returns
// the raw response, which is either the provider envelope or an already
// unwrapped {"options":[...]} object.
func (c *RelayClient) Generate(ctx context.Context, body []byte) ([]byte, error) {
	out, err := postJSON(ctx, c.client, c.baseURL+"/generate", nil, body)
	if err != nil {
		return nil, fmt.Errorf("relay generate: %w", err)
	}
	return out, nil
}
