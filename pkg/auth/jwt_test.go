package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "notelink-test"})
	require.NoError(t, err)
	return v
}

func TestValidateToken(t *testing.T) {
	v := newTestValidator(t)

	t.Run("round trip", func(t *testing.T) {
		token, err := v.GenerateToken("user-1", "user@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := v.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "user@example.com", claims.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.GenerateToken("user-1", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTValidator(JWTConfig{SecretKey: "other-secret", Issuer: "notelink-test"})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "someone-else"})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.ValidateToken("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := v.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestNewJWTValidatorRequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "user-1", Email: "a@b.c"})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
