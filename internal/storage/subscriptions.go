package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/pkg/pg"
)

// SubscriptionRepository persists user subscriptions. The table carries a
// unique constraint on user_id, so every write path is expressed as a
// single upsert or guarded update.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates the repository. Panics on a nil pool.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	if db == nil {
		panic("storage: pgx pool is required")
	}
	return &SubscriptionRepository{db: db}
}

// GetWithPlan implements entitlement.SubscriptionStore.
func (r *SubscriptionRepository) GetWithPlan(ctx context.Context, userID uuid.UUID) (*entitlement.Subscription, *entitlement.Plan, error) {
	const query = `
		SELECT s.id, s.user_id, s.plan_id, s.status,
		       s.stripe_customer_id, s.stripe_subscription_id,
		       s.current_period_start, s.current_period_end,
		       s.created_at, s.updated_at,
		       p.id, p.slug, p.plan_type, p.name, p.price_zar,
		       p.features, p.stripe_price_id, p.is_active
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = $1`

	var (
		sub      entitlement.Subscription
		plan     entitlement.Plan
		features []byte
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status,
		&sub.StripeCustomerID, &sub.StripeSubscriptionID,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.CreatedAt, &sub.UpdatedAt,
		&plan.ID, &plan.Slug, &plan.Type, &plan.Name, &plan.PriceZAR,
		&features, &plan.StripePriceID, &plan.IsActive,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil, entitlement.ErrSubscriptionNotFound
		}
		return nil, nil, fmt.Errorf("storage: get subscription: %w", err)
	}

	if err := json.Unmarshal(features, &plan.Features); err != nil {
		return nil, nil, fmt.Errorf("storage: decode plan features: %w", err)
	}
	return &sub, &plan, nil
}

// Upsert implements entitlement.SubscriptionStore. A user has at most one
// subscription row; a repeat purchase replaces the plan and provider
// references in place.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *entitlement.Subscription) error {
	const query = `
		INSERT INTO user_subscriptions
			(id, user_id, plan_id, status, stripe_customer_id, stripe_subscription_id,
			 current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status,
		sub.StripeCustomerID, sub.StripeSubscriptionID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storage: upsert subscription: %w", err)
	}
	return nil
}

// SyncByCustomer implements entitlement.SubscriptionStore. The updated_at
// guard in the WHERE clause drops events older than the state already
// stored, so out-of-order webhook delivery cannot roll a subscription back.
func (r *SubscriptionRepository) SyncByCustomer(ctx context.Context, customerID string, status entitlement.Status, periodStart, periodEnd, occurredAt time.Time) (uuid.UUID, bool, error) {
	const query = `
		UPDATE user_subscriptions SET
			status = $2,
			current_period_start = $3,
			current_period_end = $4,
			updated_at = $5
		WHERE stripe_customer_id = $1 AND updated_at <= $5
		RETURNING user_id`

	var userID uuid.UUID
	err := r.db.QueryRow(ctx, query, customerID, status, periodStart, periodEnd, occurredAt).Scan(&userID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("storage: sync subscription: %w", err)
	}
	return userID, true, nil
}

// CancelByCustomer implements entitlement.SubscriptionStore.
func (r *SubscriptionRepository) CancelByCustomer(ctx context.Context, customerID string) (uuid.UUID, bool, error) {
	const query = `
		UPDATE user_subscriptions SET
			status = $2,
			updated_at = now()
		WHERE stripe_customer_id = $1
		RETURNING user_id`

	var userID uuid.UUID
	err := r.db.QueryRow(ctx, query, customerID, entitlement.StatusCancelled).Scan(&userID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("storage: cancel subscription: %w", err)
	}
	return userID, true, nil
}
