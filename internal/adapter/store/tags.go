package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prombank/internal/domain"
	"prombank/internal/port"
)

const tagColumns = `id, name, description, color, created_at`

// GetOrCreateTag returns the tag with the given name, creating it if needed.
func (s *PostgresStore) GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	query := `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + tagColumns
	return scanTag(s.db.QueryRowContext(ctx, query, name))
}

// GetTag retrieves a tag by ID.
func (s *PostgresStore) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	return scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
}

// ListTags returns all tags ordered by name.
func (s *PostgresStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// SearchTags finds tags by name substring, ordered by name.
func (s *PostgresStore) SearchTags(ctx context.Context, query string, limit int) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name ILIKE $1 ORDER BY name LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// PopularTags returns tags with their prompt counts, most used first.
func (s *PostgresStore) PopularTags(ctx context.Context, limit int) ([]domain.TagUsage, error) {
	query := `
		SELECT t.id, t.name, t.description, t.color, t.created_at, COUNT(pt.prompt_id) AS usage_count
		FROM tags t
		LEFT JOIN prompt_tags pt ON pt.tag_id = t.id
		GROUP BY t.id
		ORDER BY usage_count DESC, t.name
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.TagUsage{}
	for rows.Next() {
		var t domain.TagUsage
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedAt, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("scan tag usage: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes a tag and its prompt links.
func (s *PostgresStore) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
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

func scanTag(row rowScanner) (*domain.Tag, error) {
	var t domain.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return &t, nil
}
