package entitlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusegigs/fusegigs/internal/entitlement"
)

var (
	hustlerPlan = entitlement.Plan{
		ID:            uuid.New(),
		Slug:          "hustler-pro",
		Type:          entitlement.PlanTypeHustler,
		Name:          "Hustler Pro",
		PriceZAR:      49,
		Features:      []string{"unlimited_applications", "pro_badge"},
		StripePriceID: "price_hustler_pro_zar",
		IsActive:      true,
	}
	employerPlan = entitlement.Plan{
		ID:            uuid.New(),
		Slug:          "employer-pro",
		Type:          entitlement.PlanTypeEmployer,
		Name:          "Employer Pro",
		PriceZAR:      99,
		Features:      []string{"unlimited_posts", "applicant_tools"},
		StripePriceID: "price_employer_pro_zar",
		IsActive:      true,
	}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func activeSubscription(userID uuid.UUID, plan entitlement.Plan, now time.Time) *entitlement.Subscription {
	return &entitlement.Subscription{
		UserID:               userID,
		PlanID:               plan.ID,
		Status:               entitlement.StatusActive,
		StripeCustomerID:     "cus_" + userID.String()[:8],
		StripeSubscriptionID: "sub_" + userID.String()[:8],
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	t.Run("fresh user equals free default", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))

		status, err := svc.Resolve(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, entitlement.FreeStatus(), status)
	})

	t.Run("active hustler has unlimited applications but free post limit", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))

		userID := uuid.New()
		require.NoError(t, store.Upsert(ctx, activeSubscription(userID, hustlerPlan, now)))

		status, err := svc.Resolve(ctx, userID)
		require.NoError(t, err)

		assert.True(t, status.IsPro)
		require.NotNil(t, status.PlanType)
		assert.Equal(t, entitlement.PlanTypeHustler, *status.PlanType)
		assert.Equal(t, entitlement.Unlimited, status.Limits.Applications)
		assert.Equal(t, entitlement.FreePostLimit, status.Limits.Posts)
		require.NotNil(t, status.Subscription)
		assert.Equal(t, "hustler-pro", status.Subscription.Plan.Slug)
	})

	t.Run("non-active subscription yields free limits", func(t *testing.T) {
		t.Parallel()

		for _, st := range []entitlement.Status{
			entitlement.StatusPastDue,
			entitlement.StatusCancelled,
			entitlement.StatusInactive,
		} {
			store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
			svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))

			userID := uuid.New()
			sub := activeSubscription(userID, employerPlan, now)
			sub.Status = st
			require.NoError(t, store.Upsert(ctx, sub))

			status, err := svc.Resolve(ctx, userID)
			require.NoError(t, err)
			assert.False(t, status.IsPro, "status %s must not be pro", st)
			assert.Equal(t, entitlement.FreePostLimit, status.Limits.Posts)
			assert.Equal(t, entitlement.FreeApplicationLimit, status.Limits.Applications)
		}
	})

	t.Run("permission flags follow usage against limits", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))

		userID := uuid.New()
		period := entitlement.PeriodOf(now)
		require.NoError(t, store.Increment(ctx, userID, period, entitlement.UsagePost))

		status, err := svc.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.CanPost, "free post limit is 1")
		assert.True(t, status.CanApply)
		assert.Equal(t, int64(1), status.Usage.PostsCount)

		for i := 0; i < 5; i++ {
			require.NoError(t, store.Increment(ctx, userID, period, entitlement.UsageApplication))
		}
		status, err = svc.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.CanApply, "free application limit is 5")
		assert.Equal(t, status.Usage.ApplicationsCount < status.Limits.Applications, status.CanApply)
		assert.Equal(t, status.Usage.PostsCount < status.Limits.Posts, status.CanPost)
	})

	t.Run("upgrade mid period unlocks only the matching action", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))

		userID := uuid.New()
		period := entitlement.PeriodOf(now)
		require.NoError(t, store.Increment(ctx, userID, period, entitlement.UsagePost))

		status, err := svc.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.CanPost)

		require.NoError(t, store.Upsert(ctx, activeSubscription(userID, employerPlan, now)))

		status, err = svc.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.True(t, status.IsPro)
		assert.True(t, status.CanPost, "employer pro posts are unlimited")
		assert.Equal(t, entitlement.Unlimited, status.Limits.Posts)
		assert.Equal(t, entitlement.FreeApplicationLimit, status.Limits.Applications, "application limit is unchanged for employers")
	})

	t.Run("expired boosts are excluded", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		userID := uuid.New()

		require.NoError(t, store.Insert(ctx, &entitlement.Boost{
			UserID:    userID,
			BoostType: "urgent",
			PriceZAR:  19,
			StartsAt:  now.Add(-73 * time.Hour),
			EndsAt:    now.Add(-time.Hour), // 72h boost bought 73h ago
			IsActive:  true,
		}))
		require.NoError(t, store.Insert(ctx, &entitlement.Boost{
			UserID:    userID,
			BoostType: "featured_7d",
			PriceZAR:  79,
			StartsAt:  now.Add(-time.Hour),
			EndsAt:    now.Add(167 * time.Hour),
			IsActive:  true,
		}))

		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))
		status, err := svc.Resolve(ctx, userID)
		require.NoError(t, err)

		require.Len(t, status.Boosts, 1)
		assert.Equal(t, "featured_7d", status.Boosts[0].BoostType)
	})

	t.Run("boosts do not affect pro status or limits", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(hustlerPlan, employerPlan)
		userID := uuid.New()
		require.NoError(t, store.Insert(ctx, &entitlement.Boost{
			UserID:    userID,
			BoostType: "profile",
			PriceZAR:  49,
			StartsAt:  now,
			EndsAt:    now.Add(168 * time.Hour),
			IsActive:  true,
		}))

		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))
		status, err := svc.Resolve(ctx, userID)
		require.NoError(t, err)

		assert.False(t, status.IsPro)
		assert.Nil(t, status.PlanType)
		assert.Equal(t, entitlement.FreeApplicationLimit, status.Limits.Applications)
		require.Len(t, status.Boosts, 1)
	})
}

func TestRecordUsage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	t.Run("invalid kind", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore()
		svc := entitlement.NewService(store, store, store)
		err := svc.RecordUsage(ctx, uuid.New(), entitlement.UsageKind("refresh"))
		assert.ErrorIs(t, err, entitlement.ErrInvalidUsageKind)
	})

	t.Run("concurrent increments lose nothing", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore()
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))
		userID := uuid.New()

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, svc.RecordUsage(ctx, userID, entitlement.UsagePost))
			}()
		}
		wg.Wait()

		rec, err := store.Get(ctx, userID, entitlement.PeriodOf(now))
		require.NoError(t, err)
		assert.Equal(t, int64(100), rec.PostsCount)
		assert.Zero(t, rec.ApplicationsCount)
	})

	t.Run("increments the matching counter only", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore()
		svc := entitlement.NewService(store, store, store, entitlement.WithClock(fixedClock(now)))
		userID := uuid.New()

		require.NoError(t, svc.RecordUsage(ctx, userID, entitlement.UsageApplication))
		require.NoError(t, svc.RecordUsage(ctx, userID, entitlement.UsageApplication))
		require.NoError(t, svc.RecordUsage(ctx, userID, entitlement.UsagePost))

		rec, err := store.Get(ctx, userID, entitlement.PeriodOf(now))
		require.NoError(t, err)
		assert.Equal(t, int64(2), rec.ApplicationsCount)
		assert.Equal(t, int64(1), rec.PostsCount)
	})
}

// fakeCache records cache traffic for assertions.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*entitlement.EntitlementStatus
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]*entitlement.EntitlementStatus)}
}

func (f *fakeCache) Get(_ context.Context, userID uuid.UUID) (*entitlement.EntitlementStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.entries[userID]
	return status, ok
}

func (f *fakeCache) Set(_ context.Context, userID uuid.UUID, status *entitlement.EntitlementStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[userID] = status
}

func (f *fakeCache) Invalidate(_ context.Context, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	f.invalidated++
}

func TestServiceCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	store := entitlement.NewMemoryStore(hustlerPlan)
	cache := newFakeCache()
	svc := entitlement.NewService(store, store, store,
		entitlement.WithClock(fixedClock(now)),
		entitlement.WithCache(cache),
	)
	userID := uuid.New()

	// First resolve populates the cache.
	first, err := svc.Resolve(ctx, userID)
	require.NoError(t, err)
	cached, ok := cache.Get(ctx, userID)
	require.True(t, ok)
	assert.Equal(t, first, cached)

	// A usage write invalidates, and the next resolve sees the new count.
	require.NoError(t, svc.RecordUsage(ctx, userID, entitlement.UsagePost))
	_, ok = cache.Get(ctx, userID)
	assert.False(t, ok)

	second, err := svc.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Usage.PostsCount)
	assert.False(t, second.CanPost)
}
