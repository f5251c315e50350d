package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

// PlanRepository stores the accepted plan of each profile in the plans table.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new repository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// Upsert replaces the profile's plan in one statement.
func (r *PlanRepository) Upsert(ctx context.Context, plan *model.Plan) error {
	eventIDs := plan.EventIDs
	if eventIDs == nil {
		eventIDs = []string{}
	}

	query := `
		INSERT INTO plans (profile_id, name, place_ids, event_ids, accepted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id) DO UPDATE
		SET name        = EXCLUDED.name,
		    place_ids   = EXCLUDED.place_ids,
		    event_ids   = EXCLUDED.event_ids,
		    accepted_at = EXCLUDED.accepted_at
	`
	_, err := r.pool.Exec(ctx, query,
		plan.ProfileID, plan.Name, plan.PlaceIDs, eventIDs, plan.AcceptedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert plan for %s: %w", plan.ProfileID, err)
	}
	return nil
}

// Get fetches the profile's plan, or service.ErrPlanNotFound.
func (r *PlanRepository) Get(ctx context.Context, profileID string) (*model.Plan, error) {
	query := `
		SELECT profile_id, name, place_ids, event_ids, accepted_at
		FROM plans
		WHERE profile_id = $1
	`
	p := &model.Plan{}
	err := r.pool.QueryRow(ctx, query, profileID).Scan(
		&p.ProfileID, &p.Name, &p.PlaceIDs, &p.EventIDs, &p.AcceptedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan for %s: %w", profileID, err)
	}
	if len(p.EventIDs) == 0 {
		p.EventIDs = nil
	}
	return p, nil
}

// Delete removes the profile's plan. Deleting a missing plan is a no-op.
func (r *PlanRepository) Delete(ctx context.Context, profileID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete plan for %s: %w", profileID, err)
	}
	return nil
}
