package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"prombank/internal/domain"
	"prombank/internal/port"
)

const apiTokenColumns = `id, user_id, name, prefix, secret_hash, expires_at, revoked, last_used_at, created_at`

// CreateAPIToken persists a new API token record. A duplicate active name for
// the same user trips the partial unique index and maps to ErrDuplicateName.
func (s *PostgresStore) CreateAPIToken(ctx context.Context, t *domain.APIToken) (*domain.APIToken, error) {
	query := `
		INSERT INTO api_tokens (user_id, name, prefix, secret_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + apiTokenColumns

	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Name, t.Prefix, t.SecretHash, t.ExpiresAt)
	created, err := scanAPIToken(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: token name %q", port.ErrDuplicateName, t.Name)
		}
		return nil, err
	}
	return created, nil
}

// ListAPITokens returns a user's non-revoked tokens, newest first. Secret
// hashes stay out of the JSON representation via the domain struct tags.
func (s *PostgresStore) ListAPITokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_tokens
	          WHERE user_id = $1 AND NOT revoked
	          ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	defer rows.Close()

	tokens := []domain.APIToken{}
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// RevokeAPIToken marks a token revoked. The user filter makes the ownership
// check part of the same statement: another user's token id behaves exactly
// like a missing one.
func (s *PostgresStore) RevokeAPIToken(ctx context.Context, userID, tokenID string) error {
	query := `UPDATE api_tokens SET revoked = TRUE WHERE id = $1 AND user_id = $2 AND NOT revoked`
	res, err := s.db.ExecContext(ctx, query, tokenID, userID)
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return nil
}

// GetAPITokenByPrefix looks up a candidate token for validation. Revocation
// and expiry are checked by the caller so expired tokens fail closed with the
// same error as revoked ones.
func (s *PostgresStore) GetAPITokenByPrefix(ctx context.Context, prefix string) (*domain.APIToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_tokens WHERE prefix = $1 AND NOT revoked`
	t, err := scanAPIToken(s.db.QueryRowContext(ctx, query, prefix))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TouchAPIToken stamps last_used_at after a successful validation.
func (s *PostgresStore) TouchAPIToken(ctx context.Context, tokenID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, tokenID)
	return err
}

func scanAPIToken(row rowScanner) (*domain.APIToken, error) {
	var t domain.APIToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Prefix, &t.SecretHash,
		&t.ExpiresAt, &t.Revoked, &t.LastUsedAt, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan api token: %w", err)
	}
	return &t, nil
}
