package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStore persists the one-row-per-user subscription state.
// Every write is a single atomic statement so a transition can never be
// left half-applied.
type SubscriptionStore interface {
	// GetWithPlan returns the user's subscription joined with its plan.
	// Returns ErrSubscriptionNotFound if the user has never subscribed.
	GetWithPlan(ctx context.Context, userID uuid.UUID) (*Subscription, *Plan, error)

	// Upsert inserts or replaces the subscription keyed by user ID. A user
	// who cancels and re-subscribes keeps a single row.
	Upsert(ctx context.Context, sub *Subscription) error

	// SyncByCustomer updates status and period bounds for the subscription
	// with the given payment-provider customer reference. Events older than
	// the stored updated_at are skipped so redelivered or out-of-order
	// updates cannot regress newer state. Returns the owning user ID and
	// whether a row was updated; an unknown customer is not an error.
	SyncByCustomer(ctx context.Context, customerID string, status Status, periodStart, periodEnd, occurredAt time.Time) (uuid.UUID, bool, error)

	// CancelByCustomer marks the subscription cancelled. Returns the owning
	// user ID and whether a row was updated; an unknown customer is not an
	// error.
	CancelByCustomer(ctx context.Context, customerID string) (uuid.UUID, bool, error)
}

// PlanStore reads the seeded plan catalog.
type PlanStore interface {
	// GetActiveBySlug resolves an active plan by its slug.
	// Returns ErrPlanNotFound for unknown or retired plans.
	GetActiveBySlug(ctx context.Context, slug string) (*Plan, error)
}

// UsageStore persists the monthly counters.
type UsageStore interface {
	// Get returns the record for (user, period) or ErrUsageNotFound.
	// Absence is not materialized; rows are created by Increment only.
	Get(ctx context.Context, userID uuid.UUID, period string) (*UsageRecord, error)

	// Increment adds one to the counter selected by kind, creating the
	// record with the other counter at zero if none exists. The
	// create-or-increment must be atomic at the storage layer: two
	// concurrent calls for a fresh (user, period) may not lose an update.
	Increment(ctx context.Context, userID uuid.UUID, period string, kind UsageKind) error
}

// BoostStore persists purchased boosts.
type BoostStore interface {
	// Insert stores a new boost row. Boosts are additive; duplicates are
	// never collapsed.
	Insert(ctx context.Context, boost *Boost) error

	// ListEffective returns the user's boosts that are in effect at now,
	// i.e. is_active with ends_at in the future.
	ListEffective(ctx context.Context, userID uuid.UUID, now time.Time) ([]Boost, error)
}
