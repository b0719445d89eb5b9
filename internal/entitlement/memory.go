package entitlement

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the store interfaces, used
// by unit tests and local development. All methods are safe for concurrent
// use; Increment in particular is atomic under the store mutex, matching the
// guarantee the SQL implementation gets from its upsert statement.
type MemoryStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]Plan
	subs  map[uuid.UUID]*Subscription // keyed by user ID
	usage map[usageKey]*UsageRecord
	boost []Boost
}

type usageKey struct {
	userID uuid.UUID
	period string
}

// NewMemoryStore returns a MemoryStore seeded with the given plans.
func NewMemoryStore(plans ...Plan) *MemoryStore {
	m := &MemoryStore{
		plans: make(map[uuid.UUID]Plan, len(plans)),
		subs:  make(map[uuid.UUID]*Subscription),
		usage: make(map[usageKey]*UsageRecord),
	}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

// GetActiveBySlug implements PlanStore.
func (m *MemoryStore) GetActiveBySlug(_ context.Context, slug string) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.plans {
		if p.Slug == slug && p.IsActive {
			plan := p
			plan.Features = slices.Clone(p.Features)
			return &plan, nil
		}
	}
	return nil, ErrPlanNotFound
}

// GetWithPlan implements SubscriptionStore.
func (m *MemoryStore) GetWithPlan(_ context.Context, userID uuid.UUID) (*Subscription, *Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[userID]
	if !ok {
		return nil, nil, ErrSubscriptionNotFound
	}
	subCopy := *sub

	plan, ok := m.plans[sub.PlanID]
	if !ok {
		return &subCopy, nil, nil
	}
	planCopy := plan
	planCopy.Features = slices.Clone(plan.Features)
	return &subCopy, &planCopy, nil
}

// Upsert implements SubscriptionStore.
func (m *MemoryStore) Upsert(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.subs[sub.UserID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	subCopy := *sub
	m.subs[sub.UserID] = &subCopy
	return nil
}

// SyncByCustomer implements SubscriptionStore.
func (m *MemoryStore) SyncByCustomer(_ context.Context, customerID string, status Status, periodStart, periodEnd, occurredAt time.Time) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if sub.StripeCustomerID != customerID {
			continue
		}
		if sub.UpdatedAt.After(occurredAt) {
			// Stale event, newer state already applied.
			return uuid.Nil, false, nil
		}
		sub.Status = status
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = periodEnd
		sub.UpdatedAt = occurredAt
		return sub.UserID, true, nil
	}
	return uuid.Nil, false, nil
}

// CancelByCustomer implements SubscriptionStore.
func (m *MemoryStore) CancelByCustomer(_ context.Context, customerID string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if sub.StripeCustomerID != customerID {
			continue
		}
		sub.Status = StatusCancelled
		sub.UpdatedAt = time.Now().UTC()
		return sub.UserID, true, nil
	}
	return uuid.Nil, false, nil
}

// Get implements UsageStore.
func (m *MemoryStore) Get(_ context.Context, userID uuid.UUID, period string) (*UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.usage[usageKey{userID: userID, period: period}]
	if !ok {
		return nil, ErrUsageNotFound
	}
	recCopy := *rec
	return &recCopy, nil
}

// Increment implements UsageStore.
func (m *MemoryStore) Increment(_ context.Context, userID uuid.UUID, period string, kind UsageKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := usageKey{userID: userID, period: period}
	rec, ok := m.usage[key]
	if !ok {
		rec = &UsageRecord{UserID: userID, Period: period}
		m.usage[key] = rec
	}
	switch kind {
	case UsagePost:
		rec.PostsCount++
	case UsageApplication:
		rec.ApplicationsCount++
	default:
		return ErrInvalidUsageKind
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// Insert implements BoostStore.
func (m *MemoryStore) Insert(_ context.Context, boost *Boost) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if boost.ID == uuid.Nil {
		boost.ID = uuid.New()
	}
	m.boost = append(m.boost, *boost)
	return nil
}

// ListEffective implements BoostStore.
func (m *MemoryStore) ListEffective(_ context.Context, userID uuid.UUID, now time.Time) ([]Boost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Boost
	for _, b := range m.boost {
		if b.UserID == userID && b.EffectiveAt(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Boosts returns a snapshot of all stored boosts, effective or not.
// Test helper.
func (m *MemoryStore) Boosts() []Boost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.boost)
}

// Subscriptions returns a snapshot of all stored subscriptions. Test helper.
func (m *MemoryStore) Subscriptions() []Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, *sub)
	}
	return out
}
