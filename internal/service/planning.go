package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiva/wayfarer/internal/model"
)

var (
	ErrSessionNotFound    = errors.New("planning session not found")
	ErrInvalidTransition  = errors.New("action not allowed in current planning state")
	ErrGenerationInFlight = errors.New("itinerary generation already in progress")
	ErrNoOptionIncluded   = errors.New("every option has been crossed out")
	ErrOptionIndex        = errors.New("option index out of range")
)

// SessionStore keeps planning sessions. Update applies fn atomically to the
// stored session and persists the result unless fn returns an error. Get and
// Update return ErrSessionNotFound for unknown or expired ids.
type SessionStore interface {
	Create(ctx context.Context, session *model.PlanningSession) error
	Get(ctx context.Context, id string) (*model.PlanningSession, error)
	Update(ctx context.Context, id string, fn func(*model.PlanningSession) error) (*model.PlanningSession, error)
	Delete(ctx context.Context, id string) error
}

// ItineraryPlanner is satisfied by *ItineraryService.
type ItineraryPlanner interface {
	FetchItineraryOptions(ctx context.Context, constraints model.ItineraryConstraints, candidates []model.PlaceCandidate) model.ItineraryOptions
}

// publishTimeout bounds state writes that must land after the caller's
// context is gone.
const publishTimeout = 5 * time.Second

// CatalogFunc returns the candidate catalog of a city.
type CatalogFunc func(city string) ([]model.PlaceCandidate, error)

// ─── PlanningService ────────────────────────────────────────

// PlanningService drives the planning flow of one modal:
//
//	FORM → GENERATING → RESULTS → VIEWING
//	                       └──────→ FORM (try again)
//
// Closing discards the session. Reopening starts in VIEWING when the profile
// has an active plan, otherwise in FORM.
type PlanningService struct {
	sessions SessionStore
	plans    *PlanService
	planner  ItineraryPlanner
	catalog  CatalogFunc
	now      func() time.Time
	logger   *slog.Logger
}

func NewPlanningService(
	sessions SessionStore,
	plans *PlanService,
	planner ItineraryPlanner,
	catalog CatalogFunc,
	logger *slog.Logger,
) *PlanningService {
	return &PlanningService{
		sessions: sessions,
		plans:    plans,
		planner:  planner,
		catalog:  catalog,
		now:      time.Now,
		logger:   logger.With("component", "planning"),
	}
}

// Open starts a session for profileID in city.
func (s *PlanningService) Open(ctx context.Context, profileID, city string) (*model.PlanningSession, error) {
	if _, err := s.catalog(city); err != nil {
		return nil, err
	}

	state := model.StateForm
	if _, err := s.plans.Get(ctx, profileID); err == nil {
		state = model.StateViewing
	} else if !errors.Is(err, ErrPlanNotFound) {
		return nil, err
	}

	session := &model.PlanningSession{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		City:      city,
		State:     state,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Get returns the current session.
func (s *PlanningService) Get(ctx context.Context, id string) (*model.PlanningSession, error) {
	return s.sessions.Get(ctx, id)
}

// Generate runs the planner with constraints. Only allowed from FORM; a
// second call while the first is running gets ErrGenerationInFlight.
func (s *PlanningService) Generate(
	ctx context.Context,
	id string,
	constraints model.ItineraryConstraints,
) (*model.PlanningSession, error) {

	// ── Step 1: Claim the session ───────────────────────
	session, err := s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		switch ps.State {
		case model.StateForm:
		case model.StateGenerating:
			return ErrGenerationInFlight
		default:
			return ErrInvalidTransition
		}
		ps.State = model.StateGenerating
		ps.Constraints = constraints
		ps.Options = nil
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog(session.City)
	if err != nil {
		s.release(ctx, id)
		return nil, err
	}

	// ── Step 2: Plan ────────────────────────────────────
	result := s.planner.FetchItineraryOptions(ctx, constraints, candidates)

	// ── Step 3: Publish results ─────────────────────────
	// The claim must be resolved even if the caller went away mid-plan,
	// otherwise the session would stay GENERATING until it expires.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	session, err = s.sessions.Update(pctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateGenerating {
			return ErrInvalidTransition
		}
		ps.State = model.StateResults
		ps.Options = make([]model.SessionOption, len(result.Options))
		for i, opt := range result.Options {
			ps.Options[i] = model.SessionOption{ItineraryOption: opt, Included: true}
		}
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.release(ctx, id)
		return nil, err
	}
	return session, nil
}

// release returns a claimed session to FORM after a failed generation.
// It runs detached from ctx's cancellation.
func (s *PlanningService) release(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err := s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateGenerating {
			return ErrInvalidTransition
		}
		ps.State = model.StateForm
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.logger.Warn("release planning session", "session_id", id, "error", err)
	}
}

// SetIncluded crosses out or restores the option at index.
func (s *PlanningService) SetIncluded(ctx context.Context, id string, index int, included bool) (*model.PlanningSession, error) {
	return s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateResults {
			return ErrInvalidTransition
		}
		if index < 0 || index >= len(ps.Options) {
			return ErrOptionIndex
		}
		ps.Options[index].Included = included
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Accept makes the first included option the profile's plan. The session
// moves to VIEWING before the plan is saved so that a concurrent transition
// cannot slip in between; a failed save moves it back to RESULTS.
func (s *PlanningService) Accept(ctx context.Context, id, pendingEventID string) (*model.PlanningSession, *model.Plan, error) {
	var chosen model.ItineraryOption
	session, err := s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateResults {
			return ErrInvalidTransition
		}
		for _, opt := range ps.Options {
			if opt.Included {
				chosen = opt.ItineraryOption
				ps.State = model.StateViewing
				ps.UpdatedAt = s.now().UTC()
				return nil
			}
		}
		return ErrNoOptionIncluded
	})
	if err != nil {
		return nil, nil, err
	}

	plan, err := s.plans.Accept(ctx, session.ProfileID, chosen, pendingEventID)
	if err != nil {
		s.reopenResults(ctx, id)
		return nil, nil, err
	}
	return session, plan, nil
}

// reopenResults undoes Accept's state change after the plan could not be
// saved. A session that moved on or vanished is left alone.
func (s *PlanningService) reopenResults(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err := s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateViewing {
			return ErrInvalidTransition
		}
		ps.State = model.StateResults
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.logger.Warn("reopen planning results", "session_id", id, "error", err)
	}
}

// TryAgain discards the generated options and returns to FORM. The
// constraints are kept for the next attempt.
func (s *PlanningService) TryAgain(ctx context.Context, id string) (*model.PlanningSession, error) {
	return s.sessions.Update(ctx, id, func(ps *model.PlanningSession) error {
		if ps.State != model.StateResults {
			return ErrInvalidTransition
		}
		ps.State = model.StateForm
		ps.Options = nil
		ps.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Close discards the session.
func (s *PlanningService) Close(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}
