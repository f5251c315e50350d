package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/pkg/geo"
)

// maxConcurrentLegs bounds outstanding directions lookups per plan.
const maxConcurrentLegs = 4

// PlaceLocator resolves a place id to its catalog entry.
type PlaceLocator func(id string) (model.PlaceCandidate, bool)

// Directions is satisfied by *DirectionsService.
type Directions interface {
	GetDirections(ctx context.Context, origin, destination model.Coordinate) model.DirectionsResult
}

// RouteService resolves travel between the consecutive stops of a plan.
type RouteService struct {
	plans      *PlanService
	directions Directions
	places     PlaceLocator
	logger     *slog.Logger
}

func NewRouteService(plans *PlanService, directions Directions, places PlaceLocator, logger *slog.Logger) *RouteService {
	return &RouteService{
		plans:      plans,
		directions: directions,
		places:     places,
		logger:     logger.With("component", "route"),
	}
}

type routeStop struct {
	id  string
	loc model.Coordinate
}

// RoutePlan returns directions for every leg of the profile's active plan:
// origin to the first stop when origin is given, then stop to stop. Stops
// without a known location are skipped.
//
// Complexity: O(S) directions lookups where S = number of stops.
func (s *RouteService) RoutePlan(ctx context.Context, profileID string, origin *model.Coordinate) (*model.PlanRoute, error) {
	plan, err := s.plans.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	stops := make([]routeStop, 0, len(plan.PlaceIDs)+1)
	if origin != nil {
		stops = append(stops, routeStop{loc: *origin})
	}
	for _, id := range plan.PlaceIDs {
		p, ok := s.places(id)
		if !ok || p.Location == nil {
			s.logger.Debug("skipping stop without location", "place_id", id)
			continue
		}
		stops = append(stops, routeStop{id: id, loc: *p.Location})
	}

	route := &model.PlanRoute{Legs: []model.PlanLeg{}}
	if len(stops) < 2 {
		return route, nil
	}

	legs := make([]model.PlanLeg, len(stops)-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLegs)
	for i := range legs {
		from, to := stops[i], stops[i+1]
		g.Go(func() error {
			legs[i] = model.PlanLeg{
				FromID:     from.id,
				ToID:       to.id,
				Directions: s.directions.GetDirections(gctx, from.loc, to.loc),
			}
			return nil
		})
	}
	_ = g.Wait() // GetDirections never fails

	route.Legs = legs
	path := make([]model.Coordinate, len(stops))
	for i, st := range stops {
		path[i] = st.loc
	}
	route.StraightLineMeters = geo.RouteDistanceMeters(path)
	for _, leg := range legs {
		d := leg.Directions
		if d.Fallback {
			route.Estimated = true
		}
		if d.Driving != nil {
			route.DrivingDistanceMeters += d.Driving.DistanceMeters
			route.DrivingDurationSeconds += d.Driving.DurationSeconds
			if d.Driving.CostRideshare != nil {
				route.RideshareCost += *d.Driving.CostRideshare
			}
		}
		if d.Transit != nil && d.Transit.CostTransit != nil {
			route.TransitCost += *d.Transit.CostTransit
		}
	}
	route.RideshareCost = roundCents(route.RideshareCost)
	route.TransitCost = roundCents(route.TransitCost)

	return route, nil
}
