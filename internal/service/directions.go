// Package service contains the trip planning logic: directions resolution,
// itinerary generation and plan management.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiva/wayfarer/internal/gateway"
	"github.com/shiva/wayfarer/internal/metrics"
	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/report"
	"github.com/shiva/wayfarer/pkg/geo"
)

// DefaultProviderTimeout bounds every outbound provider or relay call.
const DefaultProviderTimeout = 8 * time.Second

// ─── Collaborators ──────────────────────────────────────────

// RelayDirections fetches driving and transit through the relay in one call.
type RelayDirections interface {
	Directions(ctx context.Context, origin, destination model.Coordinate) (gateway.ModeMeasures, error)
}

// ModeDirections queries a directions provider for a single travel mode.
type ModeDirections interface {
	Directions(ctx context.Context, origin, destination model.Coordinate, mode model.TravelMode) (gateway.Measure, error)
}

// DirectionsCache stores live results. Implementations may fail silently.
type DirectionsCache interface {
	Get(ctx context.Context, origin, destination model.Coordinate) (*model.DirectionsResult, bool)
	Set(ctx context.Context, origin, destination model.Coordinate, result model.DirectionsResult)
}

// ─── DirectionsService ──────────────────────────────────────

// DirectionsService resolves travel directions between two coordinates.
//
// Resolution order, per travel mode:
//  1. Relay (one combined request), when configured.
//  2. Direct provider, when a usable key was configured, for modes the relay
//     left unresolved. Driving and transit run concurrently.
//  3. Driving only: a synthetic haversine leg at geo.AverageSpeedMph.
//
// GetDirections never fails; Fallback marks a synthetic driving leg.
type DirectionsService struct {
	relay    RelayDirections // nil when no relay is configured
	provider ModeDirections  // nil when no usable key is configured
	cache    DirectionsCache // optional
	fares    FareConfig
	timeout  time.Duration
	logger   *slog.Logger
}

// DirectionsOption customizes a DirectionsService.
type DirectionsOption func(*DirectionsService)

// WithDirectionsCache enables result caching.
func WithDirectionsCache(c DirectionsCache) DirectionsOption {
	return func(s *DirectionsService) { s.cache = c }
}

// WithFareConfig overrides DefaultFareConfig.
func WithFareConfig(f FareConfig) DirectionsOption {
	return func(s *DirectionsService) { s.fares = f }
}

// WithProviderTimeout overrides DefaultProviderTimeout.
func WithProviderTimeout(d time.Duration) DirectionsOption {
	return func(s *DirectionsService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewDirectionsService creates a resolver. relay and provider may be nil.
func NewDirectionsService(
	relay RelayDirections,
	provider ModeDirections,
	logger *slog.Logger,
	opts ...DirectionsOption,
) *DirectionsService {
	s := &DirectionsService{
		relay:    relay,
		provider: provider,
		fares:    DefaultFareConfig(),
		timeout:  DefaultProviderTimeout,
		logger:   logger.With("component", "directions"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDirections resolves driving and transit legs from origin to destination.
func (s *DirectionsService) GetDirections(
	ctx context.Context,
	origin model.Coordinate,
	destination model.Coordinate,
) model.DirectionsResult {

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, origin, destination); ok {
			countLegs(cached, "cache")
			return *cached
		}
	}

	var driving, transit *gateway.Measure

	// ── Step 1: Relay ───────────────────────────────────
	if s.relay != nil {
		driving, transit = s.fromRelay(ctx, origin, destination)
	}

	// ── Step 2: Direct provider ─────────────────────────
	if s.provider != nil && (driving == nil || transit == nil) {
		d, t := s.fromProvider(ctx, origin, destination, driving == nil, transit == nil)
		if d != nil {
			driving = d
		}
		if t != nil {
			transit = t
		}
	}

	result := model.DirectionsResult{}
	if transit != nil {
		result.Transit = s.transitLeg(*transit)
	}

	// ── Step 3: Synthetic driving ───────────────────────
	if driving != nil {
		result.Driving = s.drivingLeg(*driving)
	} else {
		distance := geo.DistanceMeters(origin, destination)
		result.Driving = s.drivingLeg(gateway.Measure{
			DistanceMeters:  distance,
			DurationSeconds: geo.EstimateDrivingSeconds(distance),
		})
		result.Fallback = true
		metrics.DirectionsLegs.WithLabelValues(string(model.ModeDriving), "synthetic").Inc()
		s.logger.Debug("using synthetic driving estimate",
			"origin", gateway.FormatLatLng(origin),
			"destination", gateway.FormatLatLng(destination),
			"distance_m", distance)
	}

	if s.cache != nil && !result.Fallback {
		s.cache.Set(ctx, origin, destination, result)
	}

	return result
}

func (s *DirectionsService) fromRelay(ctx context.Context, origin, destination model.Coordinate) (driving, transit *gateway.Measure) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	modes, err := s.relay.Directions(ctx, origin, destination)
	if err != nil {
		s.logger.Warn("relay directions failed", "error", err)
		report.ProviderFailure(err, "relay", "directions")
		return nil, nil
	}
	if modes.Driving != nil {
		metrics.DirectionsLegs.WithLabelValues(string(model.ModeDriving), "relay").Inc()
	}
	if modes.Transit != nil {
		metrics.DirectionsLegs.WithLabelValues(string(model.ModeTransit), "relay").Inc()
	}
	return modes.Driving, modes.Transit
}

// fromProvider issues the requested mode lookups concurrently and waits for
// all of them. A failed mode does not cancel the other.
func (s *DirectionsService) fromProvider(
	ctx context.Context,
	origin, destination model.Coordinate,
	wantDriving, wantTransit bool,
) (driving, transit *gateway.Measure) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var g errgroup.Group
	lookup := func(mode model.TravelMode, out **gateway.Measure) {
		g.Go(func() error {
			m, err := s.provider.Directions(ctx, origin, destination, mode)
			if err != nil {
				s.logger.Warn("provider directions failed", "mode", mode, "error", err)
				report.ProviderFailure(err, "maps", "directions_"+string(mode))
				return nil
			}
			metrics.DirectionsLegs.WithLabelValues(string(mode), "provider").Inc()
			*out = &m
			return nil
		})
	}

	if wantDriving {
		lookup(model.ModeDriving, &driving)
	}
	if wantTransit {
		lookup(model.ModeTransit, &transit)
	}
	_ = g.Wait()

	return driving, transit
}

func (s *DirectionsService) drivingLeg(m gateway.Measure) *model.RouteLeg {
	cost := s.fares.RideshareCost(m.DistanceMeters)
	return &model.RouteLeg{
		DistanceMeters:  m.DistanceMeters,
		DurationSeconds: m.DurationSeconds,
		CostRideshare:   &cost,
	}
}

func (s *DirectionsService) transitLeg(m gateway.Measure) *model.RouteLeg {
	cost := s.fares.TransitFlat
	return &model.RouteLeg{
		DistanceMeters:  m.DistanceMeters,
		DurationSeconds: m.DurationSeconds,
		CostTransit:     &cost,
	}
}

func countLegs(r *model.DirectionsResult, source string) {
	if r.Driving != nil {
		metrics.DirectionsLegs.WithLabelValues(string(model.ModeDriving), source).Inc()
	}
	if r.Transit != nil {
		metrics.DirectionsLegs.WithLabelValues(string(model.ModeTransit), source).Inc()
	}
}
