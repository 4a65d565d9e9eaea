package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/domain"
	"prombank/internal/port"
	"prombank/internal/token"
)

func newGuardFixture(t *testing.T) (*Guard, *TokenService, *FakeStore, *domain.User) {
	t.Helper()
	store := NewFakeStore()
	user, err := store.UpsertUser(context.Background(), &domain.User{
		Email:      "alice@example.com",
		Name:       "Alice",
		Provider:   "google",
		ProviderID: "sub-1",
	})
	require.NoError(t, err)

	jwt := token.NewJWT("test-secret", "prombank-test", time.Minute, time.Hour)
	return NewGuard(store, jwt), NewTokenService(store), store, user
}

func TestGuard_EmptyBearerRejected(t *testing.T) {
	guard, _, _, _ := newGuardFixture(t)

	_, err := guard.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestGuard_AccessTokenPath(t *testing.T) {
	guard, _, _, user := newGuardFixture(t)
	jwt := token.NewJWT("test-secret", "prombank-test", time.Minute, time.Hour)

	access, err := jwt.MintAccess(user.ID, user.Email)
	require.NoError(t, err)

	uc, err := guard.Authenticate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, domain.TokenKindAccess, uc.Kind)
}

func TestGuard_ExpiredAccessTokenRejected(t *testing.T) {
	guard, _, _, user := newGuardFixture(t)
	jwt := token.NewJWT("test-secret", "prombank-test", -time.Minute, time.Hour)

	access, err := jwt.MintAccess(user.ID, user.Email)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), access)
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

// The create/validate/revoke/reject round trip for an API token.
func TestGuard_APITokenLifecycle(t *testing.T) {
	guard, tokens, _, user := newGuardFixture(t)

	created, err := tokens.Create(context.Background(), user.ID, "ci", nil)
	require.NoError(t, err)

	uc, err := guard.Authenticate(context.Background(), created.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, domain.TokenKindAPI, uc.Kind)

	require.NoError(t, tokens.Revoke(context.Background(), user.ID, created.ID))

	// Revocation is visible on the very next check.
	_, err = guard.Authenticate(context.Background(), created.Secret)
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestGuard_APITokenWrongSecretRejected(t *testing.T) {
	guard, tokens, _, user := newGuardFixture(t)

	created, err := tokens.Create(context.Background(), user.ID, "ci", nil)
	require.NoError(t, err)

	// Same prefix, different secret body.
	forged := created.Secret[:len(created.Secret)-4] + "0000"
	if forged == created.Secret {
		forged = created.Secret[:len(created.Secret)-4] + "1111"
	}
	_, err = guard.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestGuard_ExpiredAPITokenRejected(t *testing.T) {
	guard, tokens, _, user := newGuardFixture(t)

	expired := time.Now().Add(-time.Hour)
	created, err := tokens.Create(context.Background(), user.ID, "stale", &expired)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), created.Secret)
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestGuard_UnknownPrefixRejected(t *testing.T) {
	guard, _, _, _ := newGuardFixture(t)

	_, err := guard.Authenticate(context.Background(), "pb_00000000"+"deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, port.ErrUnauthenticated)
}

func TestGuard_APITokenStampsLastUsed(t *testing.T) {
	guard, tokens, store, user := newGuardFixture(t)

	created, err := tokens.Create(context.Background(), user.ID, "ci", nil)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), created.Secret)
	require.NoError(t, err)

	listed, err := store.ListAPITokens(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].LastUsedAt)
}
