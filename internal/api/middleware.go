package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fusegigs/fusegigs/internal/identity"
	"github.com/fusegigs/fusegigs/pkg/jwt"
)

// accessClaims is the token payload issued at sign-in.
type accessClaims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>"
// header. Empty when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// userFromToken verifies the token and builds the request identity.
func userFromToken(tokens *jwt.Service, token string) (identity.User, error) {
	var claims accessClaims
	if err := tokens.Parse(token, &claims); err != nil {
		return identity.User{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.User{}, jwt.ErrInvalidToken
	}
	return identity.User{ID: userID, Email: claims.Email}, nil
}

// RequireUser rejects requests without a valid bearer token and injects the
// authenticated user into the request context.
func RequireUser(tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, ErrUnauthorized)
				return
			}

			user, err := userFromToken(tokens, token)
			if err != nil {
				writeError(w, ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

// OptionalUser injects the authenticated user when a valid bearer token is
// present and passes the request through untouched otherwise. An invalid
// token reads as anonymous rather than as an error, so public endpoints
// stay reachable with an expired session.
func OptionalUser(tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if user, err := userFromToken(tokens, token); err == nil {
					r = r.WithContext(identity.WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
