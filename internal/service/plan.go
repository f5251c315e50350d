package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shiva/wayfarer/internal/model"
)

var (
	// ErrPlanNotFound means the profile has no active plan.
	ErrPlanNotFound = errors.New("no active plan")

	// ErrEmptyOption means the accepted option lists no places.
	ErrEmptyOption = errors.New("itinerary option has no places")
)

// PlanStore persists one plan per profile. Get returns ErrPlanNotFound when
// the profile has none.
type PlanStore interface {
	Upsert(ctx context.Context, plan *model.Plan) error
	Get(ctx context.Context, profileID string) (*model.Plan, error)
	Delete(ctx context.Context, profileID string) error
}

// PlanService owns the accepted plan of each profile. Plans are only ever
// replaced as a whole or cleared.
type PlanService struct {
	store  PlanStore
	now    func() time.Time
	logger *slog.Logger
}

func NewPlanService(store PlanStore, logger *slog.Logger) *PlanService {
	return &PlanService{
		store:  store,
		now:    time.Now,
		logger: logger.With("component", "plan"),
	}
}

// Accept replaces the profile's plan with option. A non-empty
// pendingEventID is linked to the new plan.
func (s *PlanService) Accept(
	ctx context.Context,
	profileID string,
	option model.ItineraryOption,
	pendingEventID string,
) (*model.Plan, error) {

	if len(option.PlaceIDs) == 0 {
		return nil, ErrEmptyOption
	}

	plan := &model.Plan{
		ProfileID:  profileID,
		PlaceIDs:   append([]string(nil), option.PlaceIDs...),
		Name:       option.Name,
		AcceptedAt: s.now().UTC(),
	}
	if id := strings.TrimSpace(pendingEventID); id != "" {
		plan.EventIDs = []string{id}
	}

	if err := s.store.Upsert(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	s.logger.Info("plan accepted", "profile_id", profileID, "stops", len(plan.PlaceIDs))
	return plan, nil
}

// Get returns the active plan or ErrPlanNotFound.
func (s *PlanService) Get(ctx context.Context, profileID string) (*model.Plan, error) {
	plan, err := s.store.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return plan, nil
}

// End clears the profile's plan. Ending when there is no plan is not an error.
func (s *PlanService) End(ctx context.Context, profileID string) error {
	if err := s.store.Delete(ctx, profileID); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	s.logger.Info("plan ended", "profile_id", profileID)
	return nil
}
