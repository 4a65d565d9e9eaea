package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/port"
)

func newTestJWT(accessTTL, refreshTTL time.Duration) *JWT {
	return NewJWT("test-secret", "prombank-test", accessTTL, refreshTTL)
}

func TestJWT_AccessRoundTrip(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)

	tok, err := j.MintAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := j.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestJWT_RefreshRoundTrip(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)

	tok, jti, expiresAt, err := j.MintRefresh("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := j.ParseRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, jti, claims.ID)
}

// A refresh token must never pass an access-token check, and vice versa.
func TestJWT_KindIsEnforced(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)

	refresh, _, _, err := j.MintRefresh("user-1")
	require.NoError(t, err)
	_, err = j.ParseAccess(refresh)
	assert.ErrorIs(t, err, port.ErrInvalidToken)

	access, err := j.MintAccess("user-1", "alice@example.com")
	require.NoError(t, err)
	_, err = j.ParseRefresh(access)
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

// An expired access token is rejected and cannot come back to life.
func TestJWT_ExpiredAccessRejected(t *testing.T) {
	j := newTestJWT(-time.Minute, time.Hour)

	tok, err := j.MintAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = j.ParseAccess(tok)
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)
	other := NewJWT("other-secret", "prombank-test", time.Minute, time.Hour)

	tok, err := j.MintAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = other.ParseAccess(tok)
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestJWT_WrongIssuerRejected(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)
	other := NewJWT("test-secret", "someone-else", time.Minute, time.Hour)

	tok, err := j.MintAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = other.ParseAccess(tok)
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestJWT_GarbageRejected(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := j.ParseAccess(tok)
		assert.ErrorIs(t, err, port.ErrInvalidToken, "token %q", tok)
	}
}

func TestJWT_RefreshJTIsAreUnique(t *testing.T) {
	j := newTestJWT(time.Minute, time.Hour)

	_, jti1, _, err := j.MintRefresh("user-1")
	require.NoError(t, err)
	_, jti2, _, err := j.MintRefresh("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, jti1, jti2)
}
