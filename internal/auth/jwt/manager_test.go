package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("jwt-test-secret-that-is-long-enough", "inviteme", 15*time.Minute, 7*24*time.Hour)
}

func TestManager_GenerateAndValidate(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("u-1", "admin@example.com", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 900, pair.ExpiresIn)

	claims, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "inviteme", claims.Issuer)
}

func TestManager_ValidateRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewManager("a-completely-different-secret-value", "inviteme", 15*time.Minute, time.Hour)

	pair, err := m.GenerateTokenPair("u-1", "admin@example.com", "admin")
	require.NoError(t, err)

	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_ValidateRejectsExpired(t *testing.T) {
	m := NewManager("jwt-test-secret-that-is-long-enough", "inviteme", -time.Minute, time.Hour)

	pair, err := m.GenerateTokenPair("u-1", "admin@example.com", "admin")
	require.NoError(t, err)

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_ValidateRejectsGarbage(t *testing.T) {
	m := newTestManager()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestManager_RefreshAccessToken(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("u-1", "admin@example.com", "admin")
	require.NoError(t, err)

	fresh, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ValidateToken(fresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}
