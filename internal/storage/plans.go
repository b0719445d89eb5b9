package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/pkg/pg"
)

// PlanRepository reads subscription plan reference data.
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates the repository. Panics on a nil pool.
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	if db == nil {
		panic("storage: pgx pool is required")
	}
	return &PlanRepository{db: db}
}

// GetActiveBySlug implements entitlement.PlanStore.
func (r *PlanRepository) GetActiveBySlug(ctx context.Context, slug string) (*entitlement.Plan, error) {
	const query = `
		SELECT id, slug, plan_type, name, price_zar, features, stripe_price_id, is_active
		FROM subscription_plans
		WHERE slug = $1 AND is_active`

	var (
		plan     entitlement.Plan
		features []byte
	)
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&plan.ID, &plan.Slug, &plan.Type, &plan.Name,
		&plan.PriceZAR, &features, &plan.StripePriceID, &plan.IsActive,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrPlanNotFound
		}
		return nil, fmt.Errorf("storage: get plan %q: %w", slug, err)
	}

	if err := json.Unmarshal(features, &plan.Features); err != nil {
		return nil, fmt.Errorf("storage: decode plan features: %w", err)
	}
	return &plan, nil
}
