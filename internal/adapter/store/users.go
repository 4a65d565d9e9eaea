package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"prombank/internal/domain"
	"prombank/internal/port"
)

const userColumns = `id, email, name, avatar_url, provider, provider_id, role, is_active, last_login_at, created_at, updated_at`

// UpsertUser inserts or updates a user keyed by (provider, provider_id).
// Email is stored lower-cased so uniqueness is case-insensitive. The
// last-login timestamp is stamped on every call.
func (s *PostgresStore) UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, last_login_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			last_login_at = NOW(),
			updated_at = NOW()
		RETURNING ` + userColumns

	row := s.db.QueryRowContext(ctx, query,
		strings.ToLower(u.Email), u.Name, u.AvatarURL, u.Provider, u.ProviderID,
	)
	return scanUser(row)
}

// GetUserByID retrieves an active user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL,
		&u.Provider, &u.ProviderID, &u.Role, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
