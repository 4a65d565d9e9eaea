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

const categoryColumns = `id, name, description, color, is_active, created_at`

// CreateCategory inserts a new category. A duplicate name maps to ErrDuplicateName.
func (s *PostgresStore) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	query := `INSERT INTO categories (name, description, color)
	          VALUES ($1, $2, $3) RETURNING ` + categoryColumns

	created, err := scanCategory(s.db.QueryRowContext(ctx, query, c.Name, c.Description, c.Color))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: category %q", port.ErrDuplicateName, c.Name)
		}
		return nil, err
	}
	return created, nil
}

// GetCategory retrieves a category by ID.
func (s *PostgresStore) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return scanCategory(s.db.QueryRowContext(ctx, query, id))
}

// GetCategoryByName retrieves a category by its unique name.
func (s *PostgresStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE name = $1`
	return scanCategory(s.db.QueryRowContext(ctx, query, name))
}

// ListCategories returns categories ordered by name.
func (s *PostgresStore) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// UpdateCategory applies non-nil fields.
func (s *PostgresStore) UpdateCategory(ctx context.Context, id string, name, description, color *string, isActive *bool) (*domain.Category, error) {
	query := `
		UPDATE categories SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			color = COALESCE($4, color),
			is_active = COALESCE($5, is_active)
		WHERE id = $1
		RETURNING ` + categoryColumns

	return scanCategory(s.db.QueryRowContext(ctx, query, id, name, description, color, isActive))
}

// DeleteCategory removes a category; its prompts fall back to no category
// via the FK's ON DELETE SET NULL.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
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

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}
