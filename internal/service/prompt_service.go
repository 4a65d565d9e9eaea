package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"prombank/internal/domain"
	"prombank/internal/port"
)

// PromptStore is the persistence surface for prompt management.
type PromptStore interface {
	CreatePrompt(ctx context.Context, p *domain.Prompt, tagNames []string) (*domain.Prompt, error)
	GetPrompt(ctx context.Context, id, viewerID string, includeVersions bool) (*domain.Prompt, error)
	ListPrompts(ctx context.Context, f domain.PromptFilter, viewerID string) ([]domain.Prompt, int, error)
	ApplyPromptUpdate(ctx context.Context, promptID string, upd domain.PromptUpdate, contentHash string, newVersion *domain.PromptVersion) error
	DeletePrompt(ctx context.Context, id, userID string) error
	IncrementPromptUsage(ctx context.Context, id, viewerID string) error
	ListPromptVersions(ctx context.Context, promptID string) ([]domain.PromptVersion, error)
	FindPromptsByContentHash(ctx context.Context, hash, userID string) ([]domain.Prompt, error)
}

// CreatePromptInput carries everything needed to create a prompt.
type CreatePromptInput struct {
	Title             string
	Description       string
	Content           string
	Type              domain.PromptType
	CategoryID        *string
	Tags              []string
	IsPublic          bool
	IsFavorite        bool
	IsTemplate        bool
	TemplateVariables json.RawMessage
	SourceURL         string
	SourceType        string
}

// PromptService implements prompt CRUD with version history.
type PromptService struct {
	store           PromptStore
	defaultPageSize int
	maxPageSize     int
}

func NewPromptService(store PromptStore, defaultPageSize, maxPageSize int) *PromptService {
	return &PromptService{store: store, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Create validates the input and stores a new prompt with its initial version.
func (s *PromptService) Create(ctx context.Context, userID string, in CreatePromptInput) (*domain.Prompt, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", port.ErrInvalidArgument)
	}
	if in.Type == "" {
		in.Type = domain.TypeUser
	}
	if !domain.ValidType(in.Type) {
		return nil, fmt.Errorf("%w: unknown prompt type %q", port.ErrInvalidArgument, in.Type)
	}

	return s.store.CreatePrompt(ctx, &domain.Prompt{
		UserID:            userID,
		Title:             title,
		Description:       in.Description,
		Content:           content,
		PromptType:        in.Type,
		Status:            domain.StatusActive,
		CategoryID:        in.CategoryID,
		IsPublic:          in.IsPublic,
		IsFavorite:        in.IsFavorite,
		IsTemplate:        in.IsTemplate,
		TemplateVariables: in.TemplateVariables,
		SourceURL:         in.SourceURL,
		SourceType:        in.SourceType,
		ContentHash:       ContentHash(content),
	}, in.Tags)
}

// Get loads a prompt visible to the viewer.
func (s *PromptService) Get(ctx context.Context, id, viewerID string, includeVersions bool) (*domain.Prompt, error) {
	return s.store.GetPrompt(ctx, id, viewerID, includeVersions)
}

// List applies the filter with pagination clamped to the configured bounds.
func (s *PromptService) List(ctx context.Context, f domain.PromptFilter, viewerID string) ([]domain.Prompt, int, error) {
	if f.Limit <= 0 {
		f.Limit = s.defaultPageSize
	}
	if f.Limit > s.maxPageSize {
		f.Limit = s.maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", port.ErrInvalidArgument, f.Status)
	}
	if f.Type != "" && !domain.ValidType(f.Type) {
		return nil, 0, fmt.Errorf("%w: unknown prompt type %q", port.ErrInvalidArgument, f.Type)
	}
	return s.store.ListPrompts(ctx, f, viewerID)
}

// Update applies a partial update. Absent (nil) fields are left untouched.
// A content change, or an explicit request, records a new version: patch
// bump for ordinary edits, major bump when requested.
func (s *PromptService) Update(ctx context.Context, id, userID string, upd domain.PromptUpdate) (*domain.Prompt, error) {
	current, err := s.store.GetPrompt(ctx, id, userID, false)
	if err != nil {
		return nil, err
	}
	// Public prompts are readable by anyone but writable only by the owner.
	if current.UserID != userID {
		return nil, port.ErrNotFound
	}
	if upd.Status != nil && !domain.ValidStatus(*upd.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", port.ErrInvalidArgument, *upd.Status)
	}

	contentChanged := upd.Content != nil && *upd.Content != current.Content
	contentHash := current.ContentHash
	if upd.Content != nil {
		contentHash = ContentHash(*upd.Content)
	}

	var newVersion *domain.PromptVersion
	if contentChanged || upd.CreateVersion {
		next := bumpVersion(current.Version, upd.CreateVersion)
		comment := upd.VersionComment
		if comment == "" {
			comment = "Content updated"
		}
		title := current.Title
		if upd.Title != nil {
			title = *upd.Title
		}
		description := current.Description
		if upd.Description != nil {
			description = *upd.Description
		}
		content := current.Content
		if upd.Content != nil {
			content = *upd.Content
		}
		newVersion = &domain.PromptVersion{
			PromptID:      id,
			Version:       next,
			Title:         title,
			Description:   description,
			Content:       content,
			ChangeLog:     comment,
			IsMajorChange: upd.CreateVersion,
		}
	}

	if err := s.store.ApplyPromptUpdate(ctx, id, upd, contentHash, newVersion); err != nil {
		return nil, err
	}
	return s.store.GetPrompt(ctx, id, userID, false)
}

// Delete removes a prompt and its history.
func (s *PromptService) Delete(ctx context.Context, id, userID string) error {
	return s.store.DeletePrompt(ctx, id, userID)
}

// Archive soft-retires a prompt instead of deleting it.
func (s *PromptService) Archive(ctx context.Context, id, userID string) (*domain.Prompt, error) {
	archived := domain.StatusArchived
	return s.Update(ctx, id, userID, domain.PromptUpdate{Status: &archived})
}

// Use records a usage of the prompt and returns it.
func (s *PromptService) Use(ctx context.Context, id, viewerID string) (*domain.Prompt, error) {
	if err := s.store.IncrementPromptUsage(ctx, id, viewerID); err != nil {
		return nil, err
	}
	return s.store.GetPrompt(ctx, id, viewerID, false)
}

// Versions returns a prompt's version history, newest first.
func (s *PromptService) Versions(ctx context.Context, id, viewerID string) ([]domain.PromptVersion, error) {
	if _, err := s.store.GetPrompt(ctx, id, viewerID, false); err != nil {
		return nil, err
	}
	return s.store.ListPromptVersions(ctx, id)
}

// Duplicates returns the caller's prompts with identical content.
func (s *PromptService) Duplicates(ctx context.Context, content, userID string) ([]domain.Prompt, error) {
	return s.store.FindPromptsByContentHash(ctx, ContentHash(content), userID)
}

// ContentHash is the sha256 hex digest used to spot duplicate prompt bodies.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// bumpVersion increments a semver-ish version string: major resets minor and
// patch, otherwise only patch moves. Unparseable versions restart at 1.0.1.
func bumpVersion(current string, major bool) string {
	parts := strings.Split(current, ".")
	nums := make([]int, 3)
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return "1.0.1"
		}
		nums[i] = n
	}
	if major {
		return fmt.Sprintf("%d.0.0", nums[0]+1)
	}
	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2]+1)
}
