// Package identity carries the authenticated caller through the request.
// Core operations take the user as an explicit argument; the context helpers
// exist only for the HTTP middleware to hand the user to its handlers.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// User is the authenticated caller as established by the identity provider.
type User struct {
	ID    uuid.UUID
	Email string
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}
