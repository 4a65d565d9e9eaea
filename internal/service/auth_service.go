package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"prombank/internal/domain"
	"prombank/internal/port"
	"prombank/internal/token"
)

// AuthStore is the persistence surface the auth flow needs.
type AuthStore interface {
	UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, id, tokenHash string) (string, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error)
}

// AuthService drives the login flow: OAuth exchange, user upsert, session
// token issuance, refresh rotation and logout.
type AuthService struct {
	provider port.IdentityProvider
	store    AuthStore
	jwt      *token.JWT
	state    *token.StateSigner
}

func NewAuthService(provider port.IdentityProvider, store AuthStore, jwt *token.JWT, state *token.StateSigner) *AuthService {
	return &AuthService{provider: provider, store: store, jwt: jwt, state: state}
}

// LoginStart returns the provider authorization URL with a fresh signed state.
func (s *AuthService) LoginStart() (authURL, state string, err error) {
	state, err = s.state.New()
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	return s.provider.AuthURL(state), state, nil
}

// LoginCallback verifies the echoed state, exchanges the code, upserts the
// user and issues a session token pair. State verification happens before
// anything else; on mismatch the claims are never fetched.
func (s *AuthService) LoginCallback(ctx context.Context, code, state string) (*domain.SessionTokens, *domain.User, error) {
	if err := s.state.Verify(state); err != nil {
		slog.Warn("oauth state verification failed", "provider", s.provider.ProviderName())
		return nil, nil, err
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.store.UpsertUser(ctx, &domain.User{
		Email:      identity.Email,
		Name:       identity.Name,
		AvatarURL:  identity.AvatarURL,
		Provider:   s.provider.ProviderName(),
		ProviderID: identity.Subject,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upsert user: %w", err)
	}

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user authenticated", "user_id", user.ID, "provider", s.provider.ProviderName())
	return tokens, user, nil
}

// Refresh validates and rotates a refresh token. The storage consume is a
// single conditional update, so a replayed or raced token loses cleanly with
// ErrInvalidToken and no second access token is ever issued from it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.SessionTokens, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := s.store.ConsumeRefreshToken(ctx, claims.ID, token.HashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, port.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Logout revokes all of the user's refresh tokens.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	n, err := s.store.RevokeUserRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}
	slog.Info("user logged out", "user_id", userID, "revoked", n)
	return nil
}

// Me returns the user behind a resolved identity.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*domain.SessionTokens, error) {
	access, err := s.jwt.MintAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refresh, jti, expiresAt, err := s.jwt.MintRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}
	if err := s.store.CreateRefreshToken(ctx, jti, user.ID, token.HashToken(refresh), expiresAt); err != nil {
		return nil, err
	}

	return &domain.SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwt.AccessTTL().Seconds()),
	}, nil
}
