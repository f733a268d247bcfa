package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	token, err := m.GenerateToken("64b7f0c2a1b2c3d4e5f60718", "admin")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.Subject)
}

func TestVerifyTokenErrors(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager(secret, time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateToken("user-1", "user")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager(secret, time.Hour)
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := later.VerifyToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-another-secret-xx", time.Hour)
		other.now = m.now
		_, err := other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.VerifyToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing user id", func(t *testing.T) {
		empty, err := m.GenerateToken("", "user")
		require.NoError(t, err)
		_, err = m.VerifyToken(empty)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
