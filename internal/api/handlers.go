package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fusegigs/fusegigs/internal/billing"
	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/internal/identity"
	"github.com/fusegigs/fusegigs/pkg/logger"
)

// stripeSignatureHeader carries the webhook signature.
const stripeSignatureHeader = "Stripe-Signature"

// maxWebhookBody caps webhook payload reads. Stripe's own limit is 64KiB.
const maxWebhookBody = 65536

// Handler bundles the HTTP endpoints over the entitlement and billing
// services.
type Handler struct {
	entitlements *entitlement.Service
	checkout     *billing.CheckoutService
	webhooks     *billing.Processor
	log          *slog.Logger
}

// NewHandler creates the API handler. Panics on nil services to fail fast
// during wiring.
func NewHandler(entitlements *entitlement.Service, checkout *billing.CheckoutService, webhooks *billing.Processor, log *slog.Logger) *Handler {
	if entitlements == nil {
		panic("api: entitlement service is required")
	}
	if checkout == nil {
		panic("api: checkout service is required")
	}
	if webhooks == nil {
		panic("api: webhook processor is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		entitlements: entitlements,
		checkout:     checkout,
		webhooks:     webhooks,
		log:          log,
	}
}

// Entitlements answers GET /api/v1/entitlements. Anonymous callers get the
// free-tier default instead of an error so the client renders the same
// shape before and after sign-in.
func (h *Handler) Entitlements(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, entitlement.FreeStatus())
		return
	}

	status, err := h.entitlements.Resolve(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "entitlement resolution failed",
			logger.UserID(user.ID), logger.Error(err))
		writeError(w, ErrInternalError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type subscriptionCheckoutRequest struct {
	PlanSlug string `json:"planSlug"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// SubscriptionCheckout answers POST /api/v1/checkout/subscription.
func (h *Handler) SubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, ErrUnauthorized)
		return
	}

	var req subscriptionCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanSlug == "" {
		writeError(w, ErrBadRequest)
		return
	}

	url, err := h.checkout.SubscriptionCheckout(r.Context(), user, req.PlanSlug)
	switch {
	case errors.Is(err, entitlement.ErrPlanNotFound):
		writeError(w, ErrNotFound)
	case err != nil:
		h.log.ErrorContext(r.Context(), "subscription checkout failed",
			logger.UserID(user.ID), logger.Error(err))
		writeError(w, ErrInternalError)
	default:
		writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
	}
}

type boostCheckoutRequest struct {
	BoostType string `json:"boostType"`
	HustleID  string `json:"hustleId,omitempty"`
}

// BoostCheckout answers POST /api/v1/checkout/boost.
func (h *Handler) BoostCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, ErrUnauthorized)
		return
	}

	var req boostCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BoostType == "" {
		writeError(w, ErrBadRequest)
		return
	}
	if req.HustleID != "" {
		if _, err := uuid.Parse(req.HustleID); err != nil {
			writeError(w, ErrBadRequest)
			return
		}
	}

	url, err := h.checkout.BoostCheckout(r.Context(), user, billing.BoostType(req.BoostType), req.HustleID)
	switch {
	case errors.Is(err, billing.ErrInvalidBoostType):
		writeError(w, ErrBadRequest)
	case err != nil:
		h.log.ErrorContext(r.Context(), "boost checkout failed",
			logger.UserID(user.ID), logger.Error(err))
		writeError(w, ErrInternalError)
	default:
		writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
	}
}

type recordUsageRequest struct {
	Kind string `json:"kind"`
}

// RecordUsage answers POST /api/v1/usage.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, ErrUnauthorized)
		return
	}

	var req recordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}

	err := h.entitlements.RecordUsage(r.Context(), user.ID, entitlement.UsageKind(req.Kind))
	switch {
	case errors.Is(err, entitlement.ErrInvalidUsageKind):
		writeError(w, ErrBadRequest)
	case err != nil:
		h.log.ErrorContext(r.Context(), "usage recording failed",
			logger.UserID(user.ID), logger.Error(err))
		writeError(w, ErrInternalError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook answers POST /webhooks/stripe. Verification and payload
// problems come back 400 so the provider stops retrying them; transient
// storage failures come back 500 so it retries.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, ErrBadRequest)
		return
	}

	err = h.webhooks.HandleWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	switch {
	case errors.Is(err, billing.ErrEventVerification), errors.Is(err, billing.ErrMalformedEvent):
		h.log.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		writeError(w, ErrBadRequest)
	case err != nil:
		h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		writeError(w, ErrInternalError)
	default:
		writeJSON(w, http.StatusOK, webhookResponse{Received: true})
	}
}
