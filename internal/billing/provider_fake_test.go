package billing_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fusegigs/fusegigs/internal/billing"
)

// fakeProvider is a scriptable Provider for tests.
type fakeProvider struct {
	mu sync.Mutex

	customerID string
	ensureErr  error

	subURL   string
	boostURL string

	periodStart time.Time
	periodEnd   time.Time
	periodErr   error

	event    *billing.Event
	parseErr error

	subRequests   []billing.SubscriptionCheckoutRequest
	boostRequests []billing.BoostCheckoutRequest
}

func (f *fakeProvider) EnsureCustomer(_ context.Context, _ string, _ uuid.UUID) (string, error) {
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	return f.customerID, nil
}

func (f *fakeProvider) CreateSubscriptionCheckout(_ context.Context, req billing.SubscriptionCheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subRequests = append(f.subRequests, req)
	return f.subURL, nil
}

func (f *fakeProvider) CreateBoostCheckout(_ context.Context, req billing.BoostCheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boostRequests = append(f.boostRequests, req)
	return f.boostURL, nil
}

func (f *fakeProvider) SubscriptionPeriod(_ context.Context, _ string) (time.Time, time.Time, error) {
	if f.periodErr != nil {
		return time.Time{}, time.Time{}, f.periodErr
	}
	return f.periodStart, f.periodEnd, nil
}

func (f *fakeProvider) ParseEvent(_ []byte, _ string) (*billing.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

// countingInvalidator records cache invalidations per user.
type countingInvalidator struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
}

func newCountingInvalidator() *countingInvalidator {
	return &countingInvalidator{calls: make(map[uuid.UUID]int)}
}

func (c *countingInvalidator) InvalidateStatus(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[userID]++
}

func (c *countingInvalidator) count(userID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[userID]
}
