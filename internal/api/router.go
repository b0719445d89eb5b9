package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fusegigs/fusegigs/pkg/jwt"
)

// NewRouter assembles the HTTP surface: the JSON API under /api/v1, the
// payment webhook and the health endpoint. The webhook route authenticates
// by signature, not by bearer token, so it sits outside the auth middleware.
func NewRouter(h *Handler, tokens *jwt.Service, healthHandler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(OptionalUser(tokens)).Get("/entitlements", h.Entitlements)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(tokens))
			r.Post("/checkout/subscription", h.SubscriptionCheckout)
			r.Post("/checkout/boost", h.BoostCheckout)
			r.Post("/usage", h.RecordUsage)
		})
	})

	r.Post("/webhooks/stripe", h.StripeWebhook)
	r.Get("/health", healthHandler)

	return r
}
