package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusegigs/fusegigs/internal/entitlement"
)

// BoostRepository persists purchased boosts. Boost rows are append-only;
// expiry is evaluated at read time against ends_at.
type BoostRepository struct {
	db *pgxpool.Pool
}

// NewBoostRepository creates the repository. Panics on a nil pool.
func NewBoostRepository(db *pgxpool.Pool) *BoostRepository {
	if db == nil {
		panic("storage: pgx pool is required")
	}
	return &BoostRepository{db: db}
}

// Insert implements entitlement.BoostStore.
func (r *BoostRepository) Insert(ctx context.Context, boost *entitlement.Boost) error {
	const query = `
		INSERT INTO boosts
			(id, user_id, hustle_id, boost_type, stripe_payment_id, price_zar,
			 starts_at, ends_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if boost.ID == uuid.Nil {
		boost.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		boost.ID, boost.UserID, boost.HustleID, boost.BoostType,
		boost.StripePaymentID, boost.PriceZAR,
		boost.StartsAt, boost.EndsAt, boost.IsActive,
	)
	if err != nil {
		return fmt.Errorf("storage: insert boost: %w", err)
	}
	return nil
}

// ListEffective implements entitlement.BoostStore.
func (r *BoostRepository) ListEffective(ctx context.Context, userID uuid.UUID, now time.Time) ([]entitlement.Boost, error) {
	const query = `
		SELECT id, user_id, hustle_id, boost_type, stripe_payment_id, price_zar,
		       starts_at, ends_at, is_active
		FROM boosts
		WHERE user_id = $1 AND is_active AND ends_at > $2
		ORDER BY ends_at`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("storage: list boosts: %w", err)
	}

	boosts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entitlement.Boost, error) {
		var b entitlement.Boost
		err := row.Scan(
			&b.ID, &b.UserID, &b.HustleID, &b.BoostType,
			&b.StripePaymentID, &b.PriceZAR,
			&b.StartsAt, &b.EndsAt, &b.IsActive,
		)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan boosts: %w", err)
	}
	return boosts, nil
}
