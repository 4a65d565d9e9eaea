package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"prombank/internal/port"
)

// CreateRefreshToken records the jti and hash of a freshly minted refresh token.
func (s *PostgresStore) CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, id, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken atomically retires a refresh token as part of rotation.
// The single conditional UPDATE guarantees that when two requests race on the
// same token, exactly one sees the row and the other gets ErrInvalidToken.
func (s *PostgresStore) ConsumeRefreshToken(ctx context.Context, id, tokenHash string) (userID string, err error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE id = $1 AND token_hash = $2 AND NOT revoked AND expires_at > NOW()
		RETURNING user_id`

	err = s.db.QueryRowContext(ctx, query, id, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", port.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return userID, nil
}

// RevokeUserRefreshTokens invalidates all of a user's refresh tokens
// ("log out everywhere"). Returns the number of tokens revoked.
func (s *PostgresStore) RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`
	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
