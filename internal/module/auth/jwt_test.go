package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "noteshare-test",
	}
}

func TestJWTManager_GenerateAccessToken(t *testing.T) {
	m := NewJWTManager(testJWTConfig())
	userID := uuid.New()

	token, expiresAt, err := m.GenerateAccessToken(userID, "alice", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestJWTManager_ValidateToken(t *testing.T) {
	m := NewJWTManager(testJWTConfig())
	userID := uuid.New()

	t.Run("validates a freshly issued token", func(t *testing.T) {
		token, _, err := m.GenerateAccessToken(userID, "alice", false)
		require.NoError(t, err)

		claims, err := m.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "noteshare-test", claims.Issuer)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTManager(&JWTConfig{
			Secret:            "other-secret",
			AccessTokenExpiry: time.Minute,
			Issuer:            "noteshare-test",
		})
		token, _, err := other.GenerateAccessToken(userID, "alice", false)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		short := NewJWTManager(&JWTConfig{
			Secret:            "test-secret",
			AccessTokenExpiry: -time.Minute,
			Issuer:            "noteshare-test",
		})
		token, _, err := short.GenerateAccessToken(userID, "alice", false)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTManager_ValidateAccessToken(t *testing.T) {
	m := NewJWTManager(testJWTConfig())
	userID := uuid.New()

	token, _, err := m.GenerateAccessToken(userID, "bob", true)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestJWTManager_RefreshTokens(t *testing.T) {
	m := NewJWTManager(testJWTConfig())

	raw, hash, expiresAt, err := m.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, raw, hash)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	// Hashing the raw token must reproduce the stored hash.
	assert.Equal(t, hash, m.HashRefreshToken(raw))

	// A different token hashes differently.
	raw2, hash2, _, err := m.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}
