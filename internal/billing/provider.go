package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider event types, named after the upstream payment provider's
// vocabulary so webhook handling reads against their documentation.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Checkout session modes.
const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

// SubscriptionCheckoutRequest describes a recurring-plan checkout.
type SubscriptionCheckoutRequest struct {
	CustomerID string
	PriceID    string
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// BoostCheckoutRequest describes a one-time boost purchase checkout.
type BoostCheckoutRequest struct {
	CustomerID  string
	Name        string
	Description string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the slice of a completed checkout the processor needs.
type CheckoutSession struct {
	Mode            string
	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string
	Metadata        map[string]string
}

// ProviderSubscription is the provider-side subscription state carried by
// lifecycle events.
type ProviderSubscription struct {
	CustomerID  string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Event is a verified, normalized payment provider event. Exactly one of
// Session and Subscription is set, depending on Type.
type Event struct {
	ID           string
	Type         string
	OccurredAt   time.Time
	Session      *CheckoutSession
	Subscription *ProviderSubscription
}

// Provider abstracts the payment provider API. Implementations verify
// webhook signatures themselves; the processor trusts any Event a Provider
// returns.
type Provider interface {
	// EnsureCustomer returns the provider customer ID for the given user,
	// creating the customer when none exists for the email.
	EnsureCustomer(ctx context.Context, email string, userID uuid.UUID) (string, error)

	// CreateSubscriptionCheckout opens a recurring checkout session and
	// returns its hosted URL.
	CreateSubscriptionCheckout(ctx context.Context, req SubscriptionCheckoutRequest) (string, error)

	// CreateBoostCheckout opens a one-time payment session and returns its
	// hosted URL.
	CreateBoostCheckout(ctx context.Context, req BoostCheckoutRequest) (string, error)

	// SubscriptionPeriod fetches the current billing period of a provider
	// subscription.
	SubscriptionPeriod(ctx context.Context, subscriptionID string) (start, end time.Time, err error)

	// ParseEvent verifies the webhook signature and normalizes the payload.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
