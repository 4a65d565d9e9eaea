package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/port"
)

func TestCategoryService_CreateAndGet(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	c, err := svc.Create(context.Background(), "  Writing  ", "prompts for prose", "#ff8800")
	require.NoError(t, err)
	assert.Equal(t, "Writing", c.Name)
	assert.True(t, c.IsActive)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCategoryService_CreateValidation(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	_, err := svc.Create(context.Background(), "   ", "", "")
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}

func TestCategoryService_DuplicateNameRejected(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	_, err := svc.Create(context.Background(), "Writing", "", "")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Writing", "", "")
	assert.ErrorIs(t, err, port.ErrDuplicateName)
}

func TestCategoryService_GetOrCreate(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	first, err := svc.GetOrCreate(context.Background(), "Coding")
	require.NoError(t, err)

	// Second call resolves the existing row instead of failing on the
	// unique name.
	second, err := svc.GetOrCreate(context.Background(), "Coding")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCategoryService_ListActiveOnly(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	_, err := svc.Create(context.Background(), "Active", "", "")
	require.NoError(t, err)
	hidden, err := svc.Create(context.Background(), "Hidden", "", "")
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), hidden.ID, nil, nil, nil, &inactive)
	require.NoError(t, err)

	active, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Active", active[0].Name)

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCategoryService_UpdatePartial(t *testing.T) {
	svc := NewCategoryService(NewFakePromptStore())

	c, err := svc.Create(context.Background(), "Old", "desc", "#000000")
	require.NoError(t, err)

	name := "New"
	updated, err := svc.Update(context.Background(), c.ID, &name, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, "#000000", updated.Color)

	blank := "  "
	_, err = svc.Update(context.Background(), c.ID, &blank, nil, nil, nil)
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}

// Deleting a category detaches prompts from it instead of deleting them.
func TestCategoryService_DeleteDetachesPrompts(t *testing.T) {
	store := NewFakePromptStore()
	svc := NewCategoryService(store)
	prompts := NewPromptService(store, 20, 100)

	c, err := svc.Create(context.Background(), "Doomed", "", "")
	require.NoError(t, err)

	p, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "T", Content: "x", CategoryID: &c.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), c.ID))

	got, err := prompts.Get(context.Background(), p.ID, "user-1", false)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	_, err = svc.Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestTagService_ListedFromPrompts(t *testing.T) {
	store := NewFakePromptStore()
	prompts := NewPromptService(store, 20, 100)
	tags := NewTagService(store)

	_, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "A", Content: "a", Tags: []string{"golang", "review"},
	})
	require.NoError(t, err)
	_, err = prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "B", Content: "b", Tags: []string{"golang"},
	})
	require.NoError(t, err)

	all, err := tags.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTagService_Search(t *testing.T) {
	store := NewFakePromptStore()
	prompts := NewPromptService(store, 20, 100)
	tags := NewTagService(store)

	_, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "A", Content: "a", Tags: []string{"golang", "python", "gopher"},
	})
	require.NoError(t, err)

	found, err := tags.Search(context.Background(), "go", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = tags.Search(context.Background(), "go", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestTagService_PopularOrdersByUsage(t *testing.T) {
	store := NewFakePromptStore()
	prompts := NewPromptService(store, 20, 100)
	tags := NewTagService(store)

	for i, tagSets := range [][]string{
		{"common", "rare"},
		{"common"},
		{"common"},
	} {
		_, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
			Title: "T", Content: ContentHash(string(rune('a' + i))), Tags: tagSets,
		})
		require.NoError(t, err)
	}

	popular, err := tags.Popular(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "common", popular[0].Name)
	assert.Equal(t, 3, popular[0].UsageCount)
}

func TestTagService_DeleteStripsFromPrompts(t *testing.T) {
	store := NewFakePromptStore()
	prompts := NewPromptService(store, 20, 100)
	tags := NewTagService(store)

	p, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title: "T", Content: "x", Tags: []string{"doomed", "kept"},
	})
	require.NoError(t, err)

	all, err := tags.List(context.Background())
	require.NoError(t, err)
	var doomedID string
	for _, tag := range all {
		if tag.Name == "doomed" {
			doomedID = tag.ID
		}
	}
	require.NotEmpty(t, doomedID)

	require.NoError(t, tags.Delete(context.Background(), doomedID))

	got, err := prompts.Get(context.Background(), p.ID, "user-1", false)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "kept", got.Tags[0].Name)

	assert.ErrorIs(t, tags.Delete(context.Background(), doomedID), port.ErrNotFound)
}
