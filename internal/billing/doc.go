// Package billing owns the money flow: it opens hosted checkout sessions
// for subscriptions and boost purchases, and applies the payment provider's
// webhook events to subscription and boost state.
//
// The provider is abstracted behind the Provider interface; the only
// concrete implementation talks to Stripe. All pricing lives server-side,
// either in the subscription_plans table or in the boost catalog.
package billing
