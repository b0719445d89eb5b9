package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/pkg/pg"
)

// UsageRepository persists monthly usage counters.
type UsageRepository struct {
	db *pgxpool.Pool
}

// NewUsageRepository creates the repository. Panics on a nil pool.
func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	if db == nil {
		panic("storage: pgx pool is required")
	}
	return &UsageRepository{db: db}
}

// Get implements entitlement.UsageStore.
func (r *UsageRepository) Get(ctx context.Context, userID uuid.UUID, period string) (*entitlement.UsageRecord, error) {
	const query = `
		SELECT user_id, month_year, applications_count, posts_count, updated_at
		FROM usage_tracking
		WHERE user_id = $1 AND month_year = $2`

	var rec entitlement.UsageRecord
	err := r.db.QueryRow(ctx, query, userID, period).Scan(
		&rec.UserID, &rec.Period, &rec.ApplicationsCount, &rec.PostsCount, &rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrUsageNotFound
		}
		return nil, fmt.Errorf("storage: get usage: %w", err)
	}
	return &rec, nil
}

// Increment implements entitlement.UsageStore. The whole read-modify-write
// is one upsert, so concurrent increments for the same user and period
// serialize inside Postgres and none are lost.
func (r *UsageRepository) Increment(ctx context.Context, userID uuid.UUID, period string, kind entitlement.UsageKind) error {
	const query = `
		INSERT INTO usage_tracking (user_id, month_year, applications_count, posts_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, month_year) DO UPDATE SET
			applications_count = usage_tracking.applications_count + EXCLUDED.applications_count,
			posts_count = usage_tracking.posts_count + EXCLUDED.posts_count,
			updated_at = now()`

	var applications, posts int64
	switch kind {
	case entitlement.UsageApplication:
		applications = 1
	case entitlement.UsagePost:
		posts = 1
	default:
		return entitlement.ErrInvalidUsageKind
	}

	if _, err := r.db.Exec(ctx, query, userID, period, applications, posts); err != nil {
		return fmt.Errorf("storage: increment usage: %w", err)
	}
	return nil
}
