package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"prombank/internal/domain"
	"prombank/internal/port"
)

const promptColumns = `p.id, p.user_id, p.title, p.description, p.content, p.prompt_type, p.status,
	p.version, p.category_id, p.usage_count, p.last_used_at, p.is_public, p.is_favorite,
	p.is_template, p.template_variables, p.source_url, p.source_type, p.content_hash,
	p.created_at, p.updated_at`

// sortColumns whitelists user-supplied sort fields.
var sortColumns = map[string]string{
	"created_at":  "p.created_at",
	"updated_at":  "p.updated_at",
	"title":       "p.title",
	"usage_count": "p.usage_count",
}

// CreatePrompt inserts a prompt, links its tags (creating them as needed) and
// records the initial version, all in one transaction.
func (s *PostgresStore) CreatePrompt(ctx context.Context, p *domain.Prompt, tagNames []string) (*domain.Prompt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO prompts (user_id, title, description, content, prompt_type, status,
			category_id, is_public, is_favorite, is_template, template_variables,
			source_url, source_type, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var tmplVars any
	if len(p.TemplateVariables) > 0 {
		tmplVars = []byte(p.TemplateVariables)
	}
	err = tx.QueryRowContext(ctx, query,
		p.UserID, p.Title, p.Description, p.Content, p.PromptType, p.Status,
		p.CategoryID, p.IsPublic, p.IsFavorite, p.IsTemplate, tmplVars,
		p.SourceURL, p.SourceType, p.ContentHash,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}

	if err := replaceTags(ctx, tx, p.ID, tagNames); err != nil {
		return nil, err
	}

	versionQuery := `
		INSERT INTO prompt_versions (prompt_id, version, title, description, content, change_log)
		VALUES ($1, '1.0.0', $2, $3, $4, 'Initial version')`
	if _, err := tx.ExecContext(ctx, versionQuery, p.ID, p.Title, p.Description, p.Content); err != nil {
		return nil, fmt.Errorf("insert initial version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetPrompt(ctx, p.ID, p.UserID, false)
}

// GetPrompt loads a prompt with its category and tags. Non-public prompts are
// only visible to their owner; anything else reads as not found.
func (s *PostgresStore) GetPrompt(ctx context.Context, id, viewerID string, includeVersions bool) (*domain.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts p
	          WHERE p.id = $1 AND (p.is_public OR p.user_id = $2)`

	p, err := scanPrompt(s.db.QueryRowContext(ctx, query, id, viewerID))
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, []*domain.Prompt{p}); err != nil {
		return nil, err
	}
	if includeVersions {
		versions, err := s.ListPromptVersions(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Versions = versions
	}
	return p, nil
}

// ListPrompts applies the filter and returns one page plus the total match count.
func (s *PostgresStore) ListPrompts(ctx context.Context, f domain.PromptFilter, viewerID string) ([]domain.Prompt, int, error) {
	where := []string{"(p.is_public OR p.user_id = $1)"}
	args := []any{viewerID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Search != "" {
		add("(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d OR p.content ILIKE $%[1]d)", "%"+f.Search+"%")
	}
	if f.CategoryID != "" {
		add("p.category_id = $%d", f.CategoryID)
	}
	if f.Type != "" {
		add("p.prompt_type = $%d", f.Type)
	}
	if f.Status != "" {
		add("p.status = $%d", f.Status)
	} else {
		// Archived and deprecated prompts are hidden unless asked for.
		where = append(where, "p.status IN ('active', 'draft')")
	}
	if f.IsPublic != nil {
		add("p.is_public = $%d", *f.IsPublic)
	}
	if f.IsFavorite != nil {
		add("p.is_favorite = $%d", *f.IsFavorite)
	}
	for _, tag := range f.Tags {
		// Prompts must carry every requested tag.
		add(`EXISTS (SELECT 1 FROM prompt_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.prompt_id = p.id AND t.name = $%d)`, tag)
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM prompts p WHERE ` + whereSQL
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = "p.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`SELECT %s FROM prompts p WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		promptColumns, whereSQL, sortCol, dir, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, 0, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := s.attachRelations(ctx, prompts); err != nil {
		return nil, 0, err
	}

	out := make([]domain.Prompt, len(prompts))
	for i, p := range prompts {
		out[i] = *p
	}
	return out, total, nil
}

// ApplyPromptUpdate applies a partial update in one transaction: field
// updates, optional tag replacement, and an optional new version row.
func (s *PostgresStore) ApplyPromptUpdate(ctx context.Context, promptID string, upd domain.PromptUpdate, contentHash string, newVersion *domain.PromptVersion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	set := []string{"updated_at = NOW()"}
	args := []any{}
	assign := func(col string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Title != nil {
		assign("title", *upd.Title)
	}
	if upd.Description != nil {
		assign("description", *upd.Description)
	}
	if upd.Content != nil {
		assign("content", *upd.Content)
		assign("content_hash", contentHash)
	}
	if upd.CategoryID != nil {
		if *upd.CategoryID == "" {
			set = append(set, "category_id = NULL")
		} else {
			assign("category_id", *upd.CategoryID)
		}
	}
	if upd.Status != nil {
		assign("status", *upd.Status)
	}
	if upd.IsPublic != nil {
		assign("is_public", *upd.IsPublic)
	}
	if upd.IsFavorite != nil {
		assign("is_favorite", *upd.IsFavorite)
	}
	if upd.TemplateVariables != nil {
		assign("template_variables", []byte(upd.TemplateVariables))
	}
	if newVersion != nil {
		assign("version", newVersion.Version)
	}

	args = append(args, promptID)
	query := fmt.Sprintf(`UPDATE prompts SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update prompt: %w", err)
	}

	if upd.TagsSet {
		if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_tags WHERE prompt_id = $1`, promptID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := replaceTags(ctx, tx, promptID, upd.Tags); err != nil {
			return err
		}
	}

	if newVersion != nil {
		versionQuery := `
			INSERT INTO prompt_versions (prompt_id, version, title, description, content, change_log, is_major_change)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err := tx.ExecContext(ctx, versionQuery,
			promptID, newVersion.Version, newVersion.Title, newVersion.Description,
			newVersion.Content, newVersion.ChangeLog, newVersion.IsMajorChange)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	}

	return tx.Commit()
}

// DeletePrompt removes a prompt and, via cascade, its versions and tag links.
// Only the owner may delete; anything else reads as not found.
func (s *PostgresStore) DeletePrompt(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
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

// IncrementPromptUsage bumps the usage counter and stamps last_used_at.
func (s *PostgresStore) IncrementPromptUsage(ctx context.Context, id, viewerID string) error {
	query := `UPDATE prompts SET usage_count = usage_count + 1, last_used_at = NOW()
	          WHERE id = $1 AND (is_public OR user_id = $2)`
	res, err := s.db.ExecContext(ctx, query, id, viewerID)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
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

// ListPromptVersions returns a prompt's version history, newest first.
func (s *PostgresStore) ListPromptVersions(ctx context.Context, promptID string) ([]domain.PromptVersion, error) {
	query := `SELECT id, prompt_id, version, title, description, content, change_log, is_major_change, created_at
	          FROM prompt_versions WHERE prompt_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.PromptVersion
	for rows.Next() {
		var v domain.PromptVersion
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.Title, &v.Description,
			&v.Content, &v.ChangeLog, &v.IsMajorChange, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// FindPromptsByContentHash returns the caller's prompts with identical content,
// used for import deduplication.
func (s *PostgresStore) FindPromptsByContentHash(ctx context.Context, hash, userID string) ([]domain.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts p WHERE p.content_hash = $1 AND p.user_id = $2`

	rows, err := s.db.QueryContext(ctx, query, hash, userID)
	if err != nil {
		return nil, fmt.Errorf("find by content hash: %w", err)
	}
	defer rows.Close()

	var prompts []domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

// replaceTags links the named tags to a prompt, creating missing tags.
func replaceTags(ctx context.Context, tx *sql.Tx, promptID string, tagNames []string) error {
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tagID string
		// DO UPDATE makes RETURNING work on conflict as well.
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("get or create tag %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO prompt_tags (prompt_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, promptID, tagID)
		if err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// attachRelations loads categories and tags for a batch of prompts.
func (s *PostgresStore) attachRelations(ctx context.Context, prompts []*domain.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Prompt, len(prompts))
	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		p.Tags = []domain.Tag{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	catQuery := `SELECT p.id, c.id, c.name, c.description, c.color, c.is_active, c.created_at
	             FROM prompts p JOIN categories c ON c.id = p.category_id
	             WHERE p.id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, catQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var promptID string
		var c domain.Category
		if err := rows.Scan(&promptID, &c.ID, &c.Name, &c.Description, &c.Color, &c.IsActive, &c.CreatedAt); err != nil {
			return fmt.Errorf("scan prompt category: %w", err)
		}
		if p, ok := byID[promptID]; ok {
			p.Category = &c
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagQuery := `SELECT pt.prompt_id, t.id, t.name, t.description, t.color, t.created_at
	             FROM prompt_tags pt JOIN tags t ON t.id = pt.tag_id
	             WHERE pt.prompt_id = ANY($1)
	             ORDER BY t.name`
	tagRows, err := s.db.QueryContext(ctx, tagQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var promptID string
		var t domain.Tag
		if err := tagRows.Scan(&promptID, &t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan prompt tag: %w", err)
		}
		if p, ok := byID[promptID]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	return tagRows.Err()
}

func scanPrompt(row rowScanner) (*domain.Prompt, error) {
	var p domain.Prompt
	var tmplVars sql.Null[[]byte]
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.Content, &p.PromptType, &p.Status,
		&p.Version, &p.CategoryID, &p.UsageCount, &p.LastUsedAt, &p.IsPublic, &p.IsFavorite,
		&p.IsTemplate, &tmplVars, &p.SourceURL, &p.SourceType, &p.ContentHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan prompt: %w", err)
	}
	if tmplVars.Valid {
		p.TemplateVariables = tmplVars.V
	}
	return &p, nil
}
