package service

import (
	"context"

	"prombank/internal/domain"
)

// TagStore is the persistence surface for tag queries.
type TagStore interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	SearchTags(ctx context.Context, query string, limit int) ([]domain.Tag, error)
	PopularTags(ctx context.Context, limit int) ([]domain.TagUsage, error)
	DeleteTag(ctx context.Context, id string) error
}

// TagService exposes the tag vocabulary. Tags themselves are created as a
// side effect of attaching them to prompts, never directly.
type TagService struct {
	store TagStore
}

func NewTagService(store TagStore) *TagService {
	return &TagService{store: store}
}

func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	return s.store.ListTags(ctx)
}

func (s *TagService) Search(ctx context.Context, query string, limit int) ([]domain.Tag, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.SearchTags(ctx, query, limit)
}

func (s *TagService) Popular(ctx context.Context, limit int) ([]domain.TagUsage, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.store.PopularTags(ctx, limit)
}

func (s *TagService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTag(ctx, id)
}
