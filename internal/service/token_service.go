package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"prombank/internal/domain"
	"prombank/internal/port"
	"prombank/internal/token"
)

// APITokenStore is the persistence surface for API token management.
type APITokenStore interface {
	CreateAPIToken(ctx context.Context, t *domain.APIToken) (*domain.APIToken, error)
	ListAPITokens(ctx context.Context, userID string) ([]domain.APIToken, error)
	RevokeAPIToken(ctx context.Context, userID, tokenID string) error
}

// TokenService manages the lifecycle of long-lived API tokens.
type TokenService struct {
	store APITokenStore
}

func NewTokenService(store APITokenStore) *TokenService {
	return &TokenService{store: store}
}

// Create mints a new API token and returns its plaintext secret exactly once.
// The name must be non-empty and unique among the user's active tokens.
func (s *TokenService) Create(ctx context.Context, userID, name string, expiresAt *time.Time) (*domain.NewAPIToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: token name must not be empty", port.ErrInvalidArgument)
	}

	secret, prefix, err := token.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := token.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	created, err := s.store.CreateAPIToken(ctx, &domain.APIToken{
		UserID:     userID,
		Name:       name,
		Prefix:     prefix,
		SecretHash: hash,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("api token created", "user_id", userID, "token_id", created.ID, "name", name)
	return &domain.NewAPIToken{
		ID:        created.ID,
		Name:      created.Name,
		Prefix:    created.Prefix,
		Secret:    secret,
		CreatedAt: created.CreatedAt,
	}, nil
}

// List returns the user's active tokens, newest first, without secrets.
func (s *TokenService) List(ctx context.Context, userID string) ([]domain.APIToken, error) {
	return s.store.ListAPITokens(ctx, userID)
}

// Revoke marks a token revoked. A token that does not exist or belongs to
// another user yields the same ErrNotFound, so existence never leaks.
func (s *TokenService) Revoke(ctx context.Context, userID, tokenID string) error {
	if err := s.store.RevokeAPIToken(ctx, userID, tokenID); err != nil {
		return err
	}
	slog.Info("api token revoked", "user_id", userID, "token_id", tokenID)
	return nil
}
