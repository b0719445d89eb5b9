package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fusegigs/fusegigs/pkg/logger"
)

// StatusCache is an optional read-through cache for resolved entitlement
// statuses. Implementations must be best-effort: a failing cache degrades to
// a storage read, never to an error.
type StatusCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*EntitlementStatus, bool)
	Set(ctx context.Context, userID uuid.UUID, status *EntitlementStatus)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Option configures the Service.
type Option func(*Service)

// WithCache enables read-through status caching.
func WithCache(cache StatusCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger supplies a logger; a nil logger keeps the default.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service resolves entitlement decisions and records tracked usage.
type Service struct {
	subs   SubscriptionStore
	usage  UsageStore
	boosts BoostStore
	cache  StatusCache
	now    func() time.Time
	log    *slog.Logger
}

// NewService creates the entitlement service. Panics on nil stores to fail
// fast during wiring.
func NewService(subs SubscriptionStore, usage UsageStore, boosts BoostStore, opts ...Option) *Service {
	if subs == nil {
		panic("entitlement: SubscriptionStore is required")
	}
	if usage == nil {
		panic("entitlement: UsageStore is required")
	}
	if boosts == nil {
		panic("entitlement: BoostStore is required")
	}

	s := &Service{
		subs:   subs,
		usage:  usage,
		boosts: boosts,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve computes the caller's entitlement status: plan, usage counters,
// limits, effective boosts and the derived permission flags. The call is
// read-only; any storage failure fails the whole call rather than returning
// a partial status.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (*EntitlementStatus, error) {
	if s.cache != nil {
		if status, ok := s.cache.Get(ctx, userID); ok {
			return status, nil
		}
	}

	now := s.now()
	status := FreeStatus()

	sub, plan, err := s.subs.GetWithPlan(ctx, userID)
	switch {
	case err == nil:
		status.IsPro = sub.Status == StatusActive
		if plan != nil {
			planType := plan.Type
			status.PlanType = &planType
			status.Subscription = &SubscriptionInfo{
				ID:                 sub.ID,
				Status:             sub.Status,
				CurrentPeriodStart: sub.CurrentPeriodStart,
				CurrentPeriodEnd:   sub.CurrentPeriodEnd,
				Plan: PlanInfo{
					Name:     plan.Name,
					Slug:     plan.Slug,
					Type:     plan.Type,
					Features: plan.Features,
				},
			}
		}
	case errors.Is(err, ErrSubscriptionNotFound):
		// Free tier, defaults already in place.
	default:
		return nil, err
	}

	usage, err := s.usage.Get(ctx, userID, PeriodOf(now))
	switch {
	case err == nil:
		status.Usage = Usage{
			ApplicationsCount: usage.ApplicationsCount,
			PostsCount:        usage.PostsCount,
		}
	case errors.Is(err, ErrUsageNotFound):
		// No tracked actions this period yet, counters stay at zero.
	default:
		return nil, err
	}

	boosts, err := s.boosts.ListEffective(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for _, b := range boosts {
		status.Boosts = append(status.Boosts, BoostInfo{
			ID:        b.ID,
			BoostType: b.BoostType,
			HustleID:  b.HustleID,
			EndsAt:    b.EndsAt,
		})
	}

	status.Limits = limitsFor(status.IsPro, status.PlanType)
	status.CanApply = withinLimit(status.Usage.ApplicationsCount, status.Limits.Applications)
	status.CanPost = withinLimit(status.Usage.PostsCount, status.Limits.Posts)

	if s.cache != nil {
		s.cache.Set(ctx, userID, status)
	}
	return status, nil
}

// RecordUsage increments the caller's monthly counter for the given action.
// Any cached status for the user is invalidated afterwards so the next
// Resolve reflects the new count.
func (s *Service) RecordUsage(ctx context.Context, userID uuid.UUID, kind UsageKind) error {
	if kind != UsagePost && kind != UsageApplication {
		return ErrInvalidUsageKind
	}

	if err := s.usage.Increment(ctx, userID, PeriodOf(s.now()), kind); err != nil {
		return err
	}

	s.InvalidateStatus(ctx, userID)
	s.log.DebugContext(ctx, "usage recorded", logger.UserID(userID), slog.String("kind", string(kind)))
	return nil
}

// InvalidateStatus drops the user's cached entitlement status. The webhook
// processor calls this after applying a payment transition.
func (s *Service) InvalidateStatus(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

// limitsFor derives the hard limits. Pro status only lifts the limit that
// matches the plan type: an active hustler keeps the free post limit and an
// active employer keeps the free application limit.
func limitsFor(isPro bool, planType *PlanType) Limits {
	limits := Limits{Applications: FreeApplicationLimit, Posts: FreePostLimit}
	if !isPro || planType == nil {
		return limits
	}
	switch *planType {
	case PlanTypeHustler:
		limits.Applications = Unlimited
	case PlanTypeEmployer:
		limits.Posts = Unlimited
	}
	return limits
}

func withinLimit(used, limit int64) bool {
	if limit == Unlimited {
		return true
	}
	return used < limit
}
