// Package relay implements the key-holding sidecar. Browser and API clients
// call it instead of the providers so that provider keys stay server side.
// Provider JSON is passed through unchanged.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"

	"github.com/shiva/wayfarer/config"
	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/metrics"
	"github.com/shiva/wayfarer/internal/middleware"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/report"
)

const (
	// maxGenerateBody caps forwarded generation requests.
	maxGenerateBody = 256 << 10

	// maxUpstreamBody caps provider bodies read into memory.
	maxUpstreamBody = 1 << 20
)

// DirectionsResponse is the body of GET /directions. A mode the provider
// could not answer is null.
type DirectionsResponse struct {
	Driving json.RawMessage `json:"driving"`
	Transit json.RawMessage `json:"transit"`
}

// Server holds the relay's configuration and upstream client.
type Server struct {
	cfg    *config.RelayConfig
	client *http.Client
	logger *slog.Logger
}

func NewServer(cfg *config.RelayConfig, client *http.Client, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "relay"),
	}
}

// Routes registers the relay endpoints and wraps them with the shared
// middleware.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/healthz", s.healthz)
	router.HandlerFunc(http.MethodGet, "/directions", s.directions)
	router.HandlerFunc(http.MethodPost, "/generate", s.generate)

	return middleware.Chain(router,
		middleware.Sentry,
		middleware.Recoverer(s.logger),
		middleware.RequestLogger(s.logger),
		middleware.CORS(s.cfg.AllowOrigin),
	)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"maps":  gateway.UsableAPIKey(s.cfg.MapsAPIKey),
		"genai": gateway.UsableAPIKey(s.cfg.GenAIAPIKey),
	})
}

// directions handles GET /directions?origin=lat,lng&destination=lat,lng
func (s *Server) directions(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.URL.Query().Get("origin"))
	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	if origin == "" || destination == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "origin and destination are required"})
		return
	}
	if !gateway.UsableAPIKey(s.cfg.MapsAPIKey) {
		metrics.RelayRequests.WithLabelValues("directions", "unconfigured").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maps key not configured"})
		return
	}

	var resp DirectionsResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		resp.Driving = s.fetchDirections(ctx, origin, destination, model.ModeDriving)
		return nil
	})
	g.Go(func() error {
		resp.Transit = s.fetchDirections(ctx, origin, destination, model.ModeTransit)
		return nil
	})
	_ = g.Wait()

	outcome := "ok"
	if resp.Driving == nil && resp.Transit == nil {
		outcome = "empty"
	}
	metrics.RelayRequests.WithLabelValues("directions", outcome).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// fetchDirections returns the provider's raw JSON for one mode, or nil.
func (s *Server) fetchDirections(ctx context.Context, origin, destination string, mode model.TravelMode) json.RawMessage {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", string(mode))
	q.Set("key", s.cfg.MapsAPIKey)
	endpoint := strings.TrimRight(s.cfg.MapsBaseURL, "/") + "/maps/api/directions/json?" + q.Encode()

	body, err := s.get(ctx, endpoint)
	if err != nil {
		s.logger.Warn("directions upstream failed", "mode", mode, "error", err)
		report.ProviderFailure(err, "maps", "relay_directions_"+string(mode))
		return nil
	}
	return body
}

func (s *Server) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxUpstreamBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", gateway.ErrMalformedBody, maxUpstreamBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", gateway.ErrUpstreamStatus, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, gateway.ErrMalformedBody
	}
	return body, nil
}

// generate handles POST /generate. The body is forwarded verbatim and the
// provider's status and body are returned verbatim.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if !gateway.UsableAPIKey(s.cfg.GenAIAPIKey) {
		metrics.RelayRequests.WithLabelValues("generate", "unconfigured").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "generative key not configured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGenerateBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}

	endpoint := gateway.GenerateEndpoint(s.cfg.GenAIBaseURL, s.cfg.GenAIModel)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.cfg.GenAIAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RelayRequests.WithLabelValues("generate", "error").Inc()
		report.ProviderFailure(err, "genai", "relay_generate")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream unavailable"})
		return
	}
	defer resp.Body.Close()

	outcome := "ok"
	if resp.StatusCode >= 300 {
		outcome = "upstream_status"
	}
	metrics.RelayRequests.WithLabelValues("generate", outcome).Inc()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("copy generate response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
