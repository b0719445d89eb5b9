package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeConfig holds the Stripe credentials.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider against the Stripe API. The stripe-go
// SDK keys its package-level calls off a process-global API key, so only one
// StripeProvider may exist per process.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider sets the global Stripe API key and returns the provider.
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	if cfg.SecretKey == "" {
		panic("billing: stripe secret key is required")
	}
	if cfg.WebhookSecret == "" {
		panic("billing: stripe webhook secret is required")
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{webhookSecret: cfg.WebhookSecret}
}

// EnsureCustomer finds the Stripe customer for the email or creates one
// tagged with the user ID.
func (p *StripeProvider) EnsureCustomer(ctx context.Context, email string, userID uuid.UUID) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	return cust.ID, nil
}

// CreateSubscriptionCheckout opens a recurring checkout session.
func (p *StripeProvider) CreateSubscriptionCheckout(ctx context.Context, req SubscriptionCheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	if sess.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return sess.URL, nil
}

// CreateBoostCheckout opens a one-time payment session with ad-hoc price
// data; boosts have no pre-registered Stripe prices.
func (p *StripeProvider) CreateBoostCheckout(ctx context.Context, req BoostCheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.Name),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	if sess.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return sess.URL, nil
}

// SubscriptionPeriod fetches the current billing period from Stripe.
func (p *StripeProvider) SubscriptionPeriod(ctx context.Context, subscriptionID string) (time.Time, time.Time, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Join(ErrProviderFailure, err)
	}
	return time.Unix(sub.CurrentPeriodStart, 0).UTC(), time.Unix(sub.CurrentPeriodEnd, 0).UTC(), nil
}

// ParseEvent verifies the webhook signature and normalizes the event.
// Event types outside the handled set come back with Session and
// Subscription both nil; the processor ignores them.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	raw, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrEventVerification, err)
	}

	event := &Event{
		ID:         raw.ID,
		Type:       string(raw.Type),
		OccurredAt: time.Unix(raw.Created, 0).UTC(),
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
		cs := &CheckoutSession{
			Mode:     string(sess.Mode),
			Metadata: sess.Metadata,
		}
		if sess.Customer != nil {
			cs.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			cs.SubscriptionID = sess.Subscription.ID
		}
		if sess.PaymentIntent != nil {
			cs.PaymentIntentID = sess.PaymentIntent.ID
		}
		event.Session = cs

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
		providerSub := &ProviderSubscription{
			Status:      string(sub.Status),
			PeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
			PeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		}
		if sub.Customer != nil {
			providerSub.CustomerID = sub.Customer.ID
		}
		event.Subscription = providerSub
	}

	return event, nil
}
