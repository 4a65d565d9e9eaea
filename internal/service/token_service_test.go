package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/port"
	"prombank/internal/token"
)

func TestTokenService_CreateReturnsUsableSecret(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	created, err := svc.Create(context.Background(), "user-1", "ci", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.Secret, token.SecretScheme))
	assert.Equal(t, "ci", created.Name)
	assert.NotEmpty(t, created.ID)

	prefix, ok := token.PrefixOf(created.Secret)
	require.True(t, ok)
	assert.Equal(t, created.Prefix, prefix)
}

func TestTokenService_CreateEmptyNameRejected(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	for _, name := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), "user-1", name, nil)
		assert.ErrorIs(t, err, port.ErrInvalidArgument, "name %q", name)
	}
}

func TestTokenService_DuplicateActiveNameRejected(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	_, err := svc.Create(context.Background(), "user-1", "ci", nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-1", "ci", nil)
	assert.ErrorIs(t, err, port.ErrDuplicateName)
}

// Revoking frees the name for reuse.
func TestTokenService_NameReusableAfterRevoke(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	created, err := svc.Create(context.Background(), "user-1", "ci", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), "user-1", created.ID))

	_, err = svc.Create(context.Background(), "user-1", "ci", nil)
	assert.NoError(t, err)
}

func TestTokenService_ListExcludesRevoked(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	first, err := svc.Create(context.Background(), "user-1", "keep", nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "user-1", "drop", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), "user-1", second.ID))

	tokens, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, first.ID, tokens[0].ID)
}

// A token owned by someone else must be indistinguishable from a missing one.
func TestTokenService_CrossUserRevokeIsNotFound(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	created, err := svc.Create(context.Background(), "user-1", "ci", nil)
	require.NoError(t, err)

	err = svc.Revoke(context.Background(), "user-2", created.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)

	// The owner can still revoke it afterwards.
	assert.NoError(t, svc.Revoke(context.Background(), "user-1", created.ID))
}

func TestTokenService_RevokeTwiceIsNotFound(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	created, err := svc.Create(context.Background(), "user-1", "ci", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), "user-1", created.ID))
	assert.ErrorIs(t, svc.Revoke(context.Background(), "user-1", created.ID), port.ErrNotFound)
}

func TestTokenService_CreateWithExpiry(t *testing.T) {
	svc := NewTokenService(NewFakeStore())

	expiresAt := time.Now().Add(24 * time.Hour)
	created, err := svc.Create(context.Background(), "user-1", "short-lived", &expiresAt)
	require.NoError(t, err)
	assert.NotNil(t, created)
}
