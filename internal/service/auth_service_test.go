package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/port"
	"prombank/internal/token"
)

// fakeIdentityProvider implements port.IdentityProvider without any network.
type fakeIdentityProvider struct {
	identity    *port.Identity
	exchangeErr error
	exchanged   int
}

func (f *fakeIdentityProvider) ProviderName() string { return "google" }

func (f *fakeIdentityProvider) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeIdentityProvider) Exchange(ctx context.Context, code string) (*port.Identity, error) {
	f.exchanged++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.identity, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *FakeStore, *fakeIdentityProvider) {
	t.Helper()
	store := NewFakeStore()
	provider := &fakeIdentityProvider{
		identity: &port.Identity{
			Subject: "google-sub-1",
			Email:   "Alice@Example.com",
			Name:    "Alice",
		},
	}
	jwt := token.NewJWT("test-secret", "prombank-test", time.Minute, time.Hour)
	state := token.NewStateSigner("test-secret")
	return NewAuthService(provider, store, jwt, state), store, provider
}

func TestAuthService_LoginStart(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	authURL, state, err := svc.LoginStart()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, authURL, state)
}

func TestAuthService_LoginCallback(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state, err := svc.LoginStart()
	require.NoError(t, err)

	tokens, user, err := svc.LoginCallback(context.Background(), "code", state)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, "alice@example.com", user.Email)
}

// A bad state must fail before the provider is ever contacted.
func TestAuthService_LoginCallback_StateMismatchFailsClosed(t *testing.T) {
	svc, _, provider := newAuthFixture(t)

	_, _, err := svc.LoginCallback(context.Background(), "code", "forged.state.value")
	assert.ErrorIs(t, err, port.ErrStateMismatch)
	assert.Zero(t, provider.exchanged, "provider must not be contacted on state mismatch")
}

func TestAuthService_LoginCallback_ProviderErrorPassesThrough(t *testing.T) {
	svc, _, provider := newAuthFixture(t)
	provider.exchangeErr = port.ErrExternalAuth

	_, state, err := svc.LoginStart()
	require.NoError(t, err)

	_, _, err = svc.LoginCallback(context.Background(), "code", state)
	assert.ErrorIs(t, err, port.ErrExternalAuth)
}

// Logging in twice with the same provider subject must reuse the user row.
func TestAuthService_LoginIdempotency(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state1, _ := svc.LoginStart()
	_, u1, err := svc.LoginCallback(context.Background(), "code", state1)
	require.NoError(t, err)

	_, state2, _ := svc.LoginStart()
	_, u2, err := svc.LoginCallback(context.Background(), "code", state2)
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state, _ := svc.LoginStart()
	tokens, _, err := svc.LoginCallback(context.Background(), "code", state)
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The first token was consumed; replaying it must fail.
	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, port.ErrInvalidToken)

	// The rotated token still works.
	_, err = svc.Refresh(context.Background(), rotated.RefreshToken)
	assert.NoError(t, err)
}

// Concurrent use of one refresh token: exactly one winner.
func TestAuthService_ConcurrentRefreshSingleWinner(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state, _ := svc.LoginStart()
	tokens, _, err := svc.LoginCallback(context.Background(), "code", state)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), tokens.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, port.ErrInvalidToken)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestAuthService_RefreshGarbageRejected(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestAuthService_LogoutRevokesRefreshTokens(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state, _ := svc.LoginStart()
	tokens, user, err := svc.LoginCallback(context.Background(), "code", state)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, port.ErrInvalidToken)
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, state, _ := svc.LoginStart()
	_, user, err := svc.LoginCallback(context.Background(), "code", state)
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)

	_, err = svc.Me(context.Background(), "no-such-user")
	assert.True(t, errors.Is(err, port.ErrNotFound))
}
