package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prombank/internal/domain"
	"prombank/internal/port"
)

// CategoryStore is the persistence surface for category management.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id string, name, description, color *string, isActive *bool) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryService manages the shared category taxonomy.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Create adds a category. Names are unique across the instance.
func (s *CategoryService) Create(ctx context.Context, name, description, color string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", port.ErrInvalidArgument)
	}
	return s.store.CreateCategory(ctx, &domain.Category{
		Name:        name,
		Description: description,
		Color:       color,
		IsActive:    true,
	})
}

// GetOrCreate resolves a category by name, creating it when missing. Lost
// creation races fall back to a second lookup.
func (s *CategoryService) GetOrCreate(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", port.ErrInvalidArgument)
	}
	c, err := s.store.GetCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		return nil, err
	}
	c, err = s.store.CreateCategory(ctx, &domain.Category{Name: name, IsActive: true})
	if errors.Is(err, port.ErrDuplicateName) {
		return s.store.GetCategoryByName(ctx, name)
	}
	return c, err
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

// Update changes the provided fields; nil fields are left untouched.
func (s *CategoryService) Update(ctx context.Context, id string, name, description, color *string, isActive *bool) (*domain.Category, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: category name must not be empty", port.ErrInvalidArgument)
		}
		name = &trimmed
	}
	return s.store.UpdateCategory(ctx, id, name, description, color, isActive)
}

// Delete removes a category. Prompts that referenced it are detached, not
// deleted.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}
