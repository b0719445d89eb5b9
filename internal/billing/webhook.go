package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/pkg/logger"
)

// StatusInvalidator drops a user's cached entitlement status after a
// payment transition. Satisfied by *entitlement.Service.
type StatusInvalidator interface {
	InvalidateStatus(ctx context.Context, userID uuid.UUID)
}

// ProcessorOption configures the Processor.
type ProcessorOption func(*Processor)

// WithProcessorClock overrides the time source, used in tests.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// WithProcessorLogger supplies a logger; a nil logger keeps the default.
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// Processor applies verified payment events to subscription and boost
// state. Handlers are written to be safely retried: applying the same event
// twice converges on the same stored state, with the single exception of
// boost purchases, where every completed payment session is a distinct
// purchase and inserts its own row.
type Processor struct {
	provider    Provider
	subs        entitlement.SubscriptionStore
	boosts      entitlement.BoostStore
	invalidator StatusInvalidator
	now         func() time.Time
	log         *slog.Logger
}

// NewProcessor creates the webhook processor. The invalidator may be nil
// when no entitlement cache is wired.
func NewProcessor(provider Provider, subs entitlement.SubscriptionStore, boosts entitlement.BoostStore, invalidator StatusInvalidator, opts ...ProcessorOption) *Processor {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if subs == nil {
		panic("billing: SubscriptionStore is required")
	}
	if boosts == nil {
		panic("billing: BoostStore is required")
	}

	p := &Processor{
		provider:    provider,
		subs:        subs,
		boosts:      boosts,
		invalidator: invalidator,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleWebhook verifies the raw payload and applies the event. Unhandled
// event types are acknowledged without effect; an event referencing state
// this system has no record of is logged and dropped rather than retried.
func (p *Processor) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := p.provider.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return p.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated:
		return p.handleSubscriptionUpdated(ctx, event)
	case EventSubscriptionDeleted:
		return p.handleSubscriptionDeleted(ctx, event)
	default:
		p.log.DebugContext(ctx, "ignoring payment event", logger.EventType(event.Type))
		return nil
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, event *Event) error {
	if event.Session == nil {
		return fmt.Errorf("%w: checkout event without session", ErrMalformedEvent)
	}

	switch event.Session.Mode {
	case ModeSubscription:
		return p.applySubscriptionPurchase(ctx, event)
	case ModePayment:
		return p.applyBoostPurchase(ctx, event)
	default:
		p.log.WarnContext(ctx, "checkout session with unknown mode",
			slog.String("mode", event.Session.Mode))
		return nil
	}
}

func (p *Processor) applySubscriptionPurchase(ctx context.Context, event *Event) error {
	sess := event.Session

	userID, err := uuid.Parse(sess.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("%w: bad user_id metadata: %w", ErrMalformedEvent, err)
	}
	planID, err := uuid.Parse(sess.Metadata["plan_id"])
	if err != nil {
		return fmt.Errorf("%w: bad plan_id metadata: %w", ErrMalformedEvent, err)
	}
	if sess.SubscriptionID == "" {
		return fmt.Errorf("%w: subscription checkout without subscription id", ErrMalformedEvent)
	}

	periodStart, periodEnd, err := p.provider.SubscriptionPeriod(ctx, sess.SubscriptionID)
	if err != nil {
		return err
	}

	sub := &entitlement.Subscription{
		UserID:               userID,
		PlanID:               planID,
		Status:               entitlement.StatusActive,
		StripeCustomerID:     sess.CustomerID,
		StripeSubscriptionID: sess.SubscriptionID,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}
	if err := p.subs.Upsert(ctx, sub); err != nil {
		return err
	}

	p.invalidate(ctx, userID)
	p.log.InfoContext(ctx, "subscription activated",
		logger.UserID(userID),
		slog.String("subscription_id", sess.SubscriptionID),
	)
	return nil
}

func (p *Processor) applyBoostPurchase(ctx context.Context, event *Event) error {
	sess := event.Session
	metadata := sess.Metadata

	// Payment-mode sessions without boost metadata belong to some other
	// product and are none of our business.
	boostType, ok := metadata["boost_type"]
	if !ok {
		p.log.DebugContext(ctx, "payment session without boost metadata")
		return nil
	}

	userID, err := uuid.Parse(metadata["user_id"])
	if err != nil {
		return fmt.Errorf("%w: bad user_id metadata: %w", ErrMalformedEvent, err)
	}
	durationHours, err := strconv.Atoi(metadata["duration_hours"])
	if err != nil || durationHours <= 0 {
		return fmt.Errorf("%w: bad duration_hours metadata %q", ErrMalformedEvent, metadata["duration_hours"])
	}
	priceZAR, err := strconv.ParseInt(metadata["price_zar"], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad price_zar metadata %q", ErrMalformedEvent, metadata["price_zar"])
	}

	var hustleID *uuid.UUID
	if raw, ok := metadata["hustle_id"]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: bad hustle_id metadata: %w", ErrMalformedEvent, err)
		}
		hustleID = &id
	}

	now := p.now().UTC()
	boost := &entitlement.Boost{
		UserID:          userID,
		HustleID:        hustleID,
		BoostType:       boostType,
		StripePaymentID: sess.PaymentIntentID,
		PriceZAR:        priceZAR,
		StartsAt:        now,
		EndsAt:          now.Add(time.Duration(durationHours) * time.Hour),
		IsActive:        true,
	}
	if err := p.boosts.Insert(ctx, boost); err != nil {
		return err
	}

	p.invalidate(ctx, userID)
	p.log.InfoContext(ctx, "boost activated",
		logger.UserID(userID),
		slog.String("boost_type", boostType),
		slog.Time("ends_at", boost.EndsAt),
	)
	return nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, event *Event) error {
	if event.Subscription == nil {
		return fmt.Errorf("%w: subscription event without subscription", ErrMalformedEvent)
	}
	sub := event.Subscription

	userID, updated, err := p.subs.SyncByCustomer(ctx, sub.CustomerID,
		mapProviderStatus(sub.Status), sub.PeriodStart, sub.PeriodEnd, event.OccurredAt)
	if err != nil {
		return err
	}
	if !updated {
		p.log.InfoContext(ctx, "subscription update not applied",
			slog.String("customer_id", sub.CustomerID),
			logger.EventType(event.Type),
		)
		return nil
	}

	p.invalidate(ctx, userID)
	p.log.InfoContext(ctx, "subscription synced",
		logger.UserID(userID),
		slog.String("provider_status", sub.Status),
	)
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, event *Event) error {
	if event.Subscription == nil {
		return fmt.Errorf("%w: subscription event without subscription", ErrMalformedEvent)
	}

	userID, updated, err := p.subs.CancelByCustomer(ctx, event.Subscription.CustomerID)
	if err != nil {
		return err
	}
	if !updated {
		p.log.InfoContext(ctx, "cancellation for unknown customer",
			slog.String("customer_id", event.Subscription.CustomerID))
		return nil
	}

	p.invalidate(ctx, userID)
	p.log.InfoContext(ctx, "subscription cancelled", logger.UserID(userID))
	return nil
}

func (p *Processor) invalidate(ctx context.Context, userID uuid.UUID) {
	if p.invalidator != nil {
		p.invalidator.InvalidateStatus(ctx, userID)
	}
}

// mapProviderStatus narrows the provider's status vocabulary to ours.
// Anything other than active or past_due reads as inactive; cancellation
// arrives as its own event type, never as an update.
func mapProviderStatus(providerStatus string) entitlement.Status {
	switch providerStatus {
	case "active":
		return entitlement.StatusActive
	case "past_due":
		return entitlement.StatusPastDue
	default:
		return entitlement.StatusInactive
	}
}
