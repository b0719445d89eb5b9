package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusegigs/fusegigs/pkg/jwt"
)

type testClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-with-32-bytes!!")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(testClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   "user-123",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
			Email: "user@example.com",
		})
		require.NoError(t, err)

		var parsed testClaims
		require.NoError(t, svc.Parse(token, &parsed))
		assert.Equal(t, "user-123", parsed.Subject)
		assert.Equal(t, "user@example.com", parsed.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(testClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   "user-123",
				ExpiresAt: time.Now().Add(-time.Minute).Unix(),
			},
		})
		require.NoError(t, err)

		var parsed testClaims
		assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrExpiredToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(testClaims{StandardClaims: jwt.StandardClaims{Subject: "user-123"}})
		require.NoError(t, err)

		other, err := jwt.NewFromString("a-completely-different-signing-key")
		require.NoError(t, err)

		var parsed testClaims
		assert.ErrorIs(t, other.Parse(token, &parsed), jwt.ErrInvalidSignature)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()

		var parsed testClaims
		assert.ErrorIs(t, svc.Parse("not.a-token", &parsed), jwt.ErrInvalidToken)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	_, err = jwt.NewFromString("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}
