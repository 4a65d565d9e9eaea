package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/domain"
	"prombank/internal/port"
)

func newPromptFixture() (*PromptService, *FakePromptStore) {
	store := NewFakePromptStore()
	return NewPromptService(store, 20, 100), store
}

func TestPromptService_CreateDefaults(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
		Title:   "  Greeting  ",
		Content: "Hello, {{name}}!",
	})
	require.NoError(t, err)

	assert.Equal(t, "Greeting", p.Title)
	assert.Equal(t, domain.TypeUser, p.PromptType)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, "1.0.0", p.Version)
	assert.Equal(t, ContentHash("Hello, {{name}}!"), p.ContentHash)
}

func TestPromptService_CreateValidation(t *testing.T) {
	svc, _ := newPromptFixture()

	_, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "", Content: "x"})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)

	_, err = svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "x", Content: "   "})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)

	_, err = svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "x", Content: "y", Type: "bogus"})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}

// Absent (nil) fields must survive a partial update untouched.
func TestPromptService_PartialUpdateLeavesFieldsAlone(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
		Title:       "Original",
		Description: "A description",
		Content:     "Original content",
		Tags:        []string{"keep-me"},
	})
	require.NoError(t, err)

	newTitle := "Renamed"
	updated, err := svc.Update(context.Background(), p.ID, "user-1", domain.PromptUpdate{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "A description", updated.Description)
	assert.Equal(t, "Original content", updated.Content)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "keep-me", updated.Tags[0].Name)
	// Title-only edits do not create a version.
	assert.Equal(t, "1.0.0", updated.Version)
}

func TestPromptService_ContentChangeBumpsPatchVersion(t *testing.T) {
	svc, store := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "T", Content: "v1"})
	require.NoError(t, err)

	newContent := "v2"
	updated, err := svc.Update(context.Background(), p.ID, "user-1", domain.PromptUpdate{Content: &newContent})
	require.NoError(t, err)

	assert.Equal(t, "1.0.1", updated.Version)
	assert.Equal(t, ContentHash("v2"), updated.ContentHash)

	versions, err := store.ListPromptVersions(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestPromptService_ExplicitMajorVersionBump(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "T", Content: "v1"})
	require.NoError(t, err)

	newContent := "v2"
	updated, err := svc.Update(context.Background(), p.ID, "user-1", domain.PromptUpdate{
		Content:        &newContent,
		CreateVersion:  true,
		VersionComment: "breaking rewrite",
	})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", updated.Version)
}

// Writable only by the owner; a public prompt of another user reads fine but
// updates as not found.
func TestPromptService_UpdateByNonOwnerIsNotFound(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "Shared", Content: "x", IsPublic: true,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), p.ID, "user-2", false)
	require.NoError(t, err)

	newTitle := "Hijacked"
	_, err = svc.Update(context.Background(), p.ID, "user-2", domain.PromptUpdate{Title: &newTitle})
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestPromptService_PrivatePromptInvisibleToOthers(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "Secret", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), p.ID, "user-2", false)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestPromptService_ClearTagsAndCategory(t *testing.T) {
	svc, store := newPromptFixture()

	c, err := store.CreateCategory(context.Background(), &domain.Category{Name: "Work", IsActive: true})
	require.NoError(t, err)

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "T", Content: "x", CategoryID: &c.ID, Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(context.Background(), p.ID, "user-1", domain.PromptUpdate{
		CategoryID: &empty,
		Tags:       []string{},
		TagsSet:    true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Empty(t, updated.Tags)
}

func TestPromptService_ListClampsPagination(t *testing.T) {
	svc, _ := newPromptFixture()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
			Title: "T", Content: ContentHash(string(rune('a' + i))),
		})
		require.NoError(t, err)
	}

	// Limit 0 falls back to the default page size.
	prompts, total, err := svc.List(context.Background(), domain.PromptFilter{}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, prompts, 3)

	// Oversized limits are clamped, not rejected.
	_, _, err = svc.List(context.Background(), domain.PromptFilter{Limit: 10000}, "user-1")
	assert.NoError(t, err)

	_, _, err = svc.List(context.Background(), domain.PromptFilter{Status: "bogus"}, "user-1")
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}

func TestPromptService_ArchiveExcludesFromDefaultListing(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "T", Content: "x"})
	require.NoError(t, err)

	archived, err := svc.Archive(context.Background(), p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, archived.Status)

	_, total, err := svc.List(context.Background(), domain.PromptFilter{}, "user-1")
	require.NoError(t, err)
	assert.Zero(t, total)

	// Still reachable when asked for explicitly.
	_, total, err = svc.List(context.Background(), domain.PromptFilter{Status: domain.StatusArchived}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPromptService_UseIncrementsUsage(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{Title: "T", Content: "x"})
	require.NoError(t, err)

	used, err := svc.Use(context.Background(), p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, used.UsageCount)
	assert.NotNil(t, used.LastUsedAt)
}

func TestPromptService_DeleteByNonOwnerIsNotFound(t *testing.T) {
	svc, _ := newPromptFixture()

	p, err := svc.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "Shared", Content: "x", IsPublic: true,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), p.ID, "user-2"), port.ErrNotFound)
	assert.NoError(t, svc.Delete(context.Background(), p.ID, "user-1"))
}

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		current string
		major   bool
		want    string
	}{
		{"1.0.0", false, "1.0.1"},
		{"1.2.3", false, "1.2.4"},
		{"1.2.3", true, "2.0.0"},
		{"0.9.9", false, "0.9.10"},
		{"garbage", false, "1.0.1"},
		{"", false, "1.0.1"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, bumpVersion(test.current, test.major),
			"bumpVersion(%q, %v)", test.current, test.major)
	}
}
