package billing

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/internal/identity"
	"github.com/fusegigs/fusegigs/pkg/logger"
)

// Config holds the checkout redirect targets.
type Config struct {
	SuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://fusegigs.app/checkout/success"`
	CancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://fusegigs.app/checkout/cancelled"`
}

// CheckoutService initiates hosted checkout sessions. It owns no payment
// state of its own: everything that matters is carried in session metadata
// and comes back through the webhook processor.
type CheckoutService struct {
	provider Provider
	plans    entitlement.PlanStore
	cfg      Config
	log      *slog.Logger
}

// NewCheckoutService creates the checkout service. Panics on nil
// dependencies to fail fast during wiring.
func NewCheckoutService(provider Provider, plans entitlement.PlanStore, cfg Config, log *slog.Logger) *CheckoutService {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if plans == nil {
		panic("billing: PlanStore is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{
		provider: provider,
		plans:    plans,
		cfg:      cfg,
		log:      log,
	}
}

// SubscriptionCheckout opens a recurring checkout for the named plan and
// returns the hosted URL to redirect the user to. The plan is validated
// before any provider call so an unknown slug never reaches Stripe.
func (s *CheckoutService) SubscriptionCheckout(ctx context.Context, user identity.User, planSlug string) (string, error) {
	plan, err := s.plans.GetActiveBySlug(ctx, planSlug)
	if err != nil {
		return "", err
	}

	customerID, err := s.provider.EnsureCustomer(ctx, user.Email, user.ID)
	if err != nil {
		return "", err
	}

	url, err := s.provider.CreateSubscriptionCheckout(ctx, SubscriptionCheckoutRequest{
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		Metadata: map[string]string{
			"user_id": user.ID.String(),
			"plan_id": plan.ID.String(),
		},
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "subscription checkout created",
		logger.UserID(user.ID),
		slog.String("plan", plan.Slug),
	)
	return url, nil
}

// BoostCheckout opens a one-time checkout for a boost purchase. hustleID is
// optional; profile-level boosts carry none. The price always comes from the
// server-side catalog, never from the client.
func (s *CheckoutService) BoostCheckout(ctx context.Context, user identity.User, boostType BoostType, hustleID string) (string, error) {
	product, err := BoostProductFor(boostType)
	if err != nil {
		return "", err
	}

	customerID, err := s.provider.EnsureCustomer(ctx, user.Email, user.ID)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{
		"user_id":        user.ID.String(),
		"boost_type":     string(product.Type),
		"duration_hours": strconv.Itoa(int(product.Duration.Hours())),
		"price_zar":      strconv.FormatInt(product.PriceZAR, 10),
	}
	if hustleID != "" {
		metadata["hustle_id"] = hustleID
	}

	url, err := s.provider.CreateBoostCheckout(ctx, BoostCheckoutRequest{
		CustomerID:  customerID,
		Name:        product.Name,
		Description: product.Description(),
		AmountCents: product.PriceZAR * 100,
		Currency:    "zar",
		Metadata:    metadata,
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "boost checkout created",
		logger.UserID(user.ID),
		slog.String("boost_type", string(product.Type)),
		slog.Int64("price_zar", product.PriceZAR),
	)
	return url, nil
}
