package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"prombank/internal/domain"
	"prombank/internal/port"
	"prombank/internal/token"
)

// GuardStore is the persistence surface for credential validation.
type GuardStore interface {
	GetAPITokenByPrefix(ctx context.Context, prefix string) (*domain.APIToken, error)
	TouchAPIToken(ctx context.Context, tokenID string) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// Guard validates a presented bearer credential and resolves it to an
// identity. It is shared by the HTTP middleware and the MCP server so both
// surfaces enforce identical rules.
type Guard struct {
	store GuardStore
	jwt   *token.JWT
}

func NewGuard(store GuardStore, jwt *token.JWT) *Guard {
	return &Guard{store: store, jwt: jwt}
}

// Authenticate determines the credential kind by its format and validates it.
// Access tokens are checked by signature and expiry alone; API tokens hit
// storage so a revocation is visible on the very next request.
func (g *Guard) Authenticate(ctx context.Context, bearer string) (*domain.UserContext, error) {
	if bearer == "" {
		return nil, port.ErrUnauthenticated
	}

	if token.IsAPIToken(bearer) {
		return g.authenticateAPIToken(ctx, bearer)
	}

	claims, err := g.jwt.ParseAccess(bearer)
	if err != nil {
		return nil, port.ErrUnauthenticated
	}
	return &domain.UserContext{
		UserID: claims.Subject,
		Email:  claims.Email,
		Kind:   domain.TokenKindAccess,
	}, nil
}

func (g *Guard) authenticateAPIToken(ctx context.Context, secret string) (*domain.UserContext, error) {
	prefix, ok := token.PrefixOf(secret)
	if !ok {
		return nil, port.ErrUnauthenticated
	}

	t, err := g.store.GetAPITokenByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, port.ErrUnauthenticated
		}
		return nil, err
	}
	if !token.VerifySecret(secret, t.SecretHash) {
		return nil, port.ErrUnauthenticated
	}
	// Expiry is detected lazily here; expired behaves exactly like revoked.
	if t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt) {
		return nil, port.ErrUnauthenticated
	}

	user, err := g.store.GetUserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, port.ErrUnauthenticated
		}
		return nil, err
	}

	if err := g.store.TouchAPIToken(ctx, t.ID); err != nil {
		slog.Warn("failed to stamp api token usage", "token_id", t.ID, "error", err)
	}

	return &domain.UserContext{
		UserID: user.ID,
		Email:  user.Email,
		Kind:   domain.TokenKindAPI,
	}, nil
}
