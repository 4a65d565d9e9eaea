package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/domain"
	"prombank/internal/port"
)

func newIEFixture() (*ImportExportService, *PromptService, *CategoryService) {
	store := NewFakePromptStore()
	prompts := NewPromptService(store, 20, 100)
	categories := NewCategoryService(store)
	return NewImportExportService(prompts, categories), prompts, categories
}

func seedPrompt(t *testing.T, prompts *PromptService, title, content string, tags []string) string {
	t.Helper()
	p, err := prompts.Create(context.Background(), "user-1", CreatePromptInput{
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	require.NoError(t, err)
	return p.ID
}

func TestImportExport_JSONRoundTrip(t *testing.T) {
	ie, prompts, _ := newIEFixture()
	seedPrompt(t, prompts, "First", "first content", []string{"a"})
	seedPrompt(t, prompts, "Second", "second content", nil)

	data, contentType, err := ie.Export(context.Background(), "user-1", ExportOptions{
		Format:          "json",
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var env struct {
		Format  string `json:"format"`
		Prompts []any  `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "prombank_export", env.Format)
	assert.Len(t, env.Prompts, 2)

	// Importing into a second user's library recreates both prompts.
	result, err := ie.Import(context.Background(), "user-2", data, ImportOptions{
		Format:         "json",
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Imported, 2)
	assert.Empty(t, result.Errors)

	_, total, err := prompts.List(context.Background(), domain.PromptFilter{}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestImportExport_YAMLRoundTrip(t *testing.T) {
	ie, prompts, _ := newIEFixture()
	seedPrompt(t, prompts, "YAML me", "yaml content", []string{"x", "y"})

	data, contentType, err := ie.Export(context.Background(), "user-1", ExportOptions{
		Format:          "yaml",
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", contentType)

	result, err := ie.Import(context.Background(), "user-2", data, ImportOptions{
		Format:         "yaml",
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "YAML me", result.Imported[0].Title)
	assert.Len(t, result.Imported[0].Tags, 2)
}

// Content already present in the user's library is skipped by hash.
func TestImport_DedupByContentHash(t *testing.T) {
	ie, prompts, _ := newIEFixture()
	seedPrompt(t, prompts, "Existing", "identical content", nil)

	payload := `{"prompts": [{"title": "Different title", "content": "identical content"}]}`
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{
		Format:         "json",
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestImport_UpdateExistingCreatesVersion(t *testing.T) {
	ie, prompts, _ := newIEFixture()
	id := seedPrompt(t, prompts, "Old title", "identical content", nil)

	payload := `{"prompts": [{"title": "New title", "content": "identical content"}]}`
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{
		Format:         "json",
		UpdateExisting: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, id, result.Imported[0].ID)
	assert.Equal(t, "New title", result.Imported[0].Title)
	assert.Equal(t, "2.0.0", result.Imported[0].Version)
}

func TestImport_DefaultCategoryApplied(t *testing.T) {
	ie, _, categories := newIEFixture()

	payload := `[{"title": "T", "content": "c"}]`
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{
		Format:          "json",
		DefaultCategory: "Imported",
		SkipDuplicates:  true,
	})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	require.NotNil(t, result.Imported[0].CategoryID)

	c, err := categories.Get(context.Background(), *result.Imported[0].CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Imported", c.Name)
}

// Bad items are reported per item; the batch keeps going.
func TestImport_PerItemErrors(t *testing.T) {
	ie, _, _ := newIEFixture()

	payload := `{"prompts": [
		{"title": "", "content": "missing title"},
		{"title": "Good", "content": "good content"}
	]}`
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{
		Format:         "json",
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "prompt 1")
}

func TestImport_TagsAcceptCommaString(t *testing.T) {
	ie, _, _ := newIEFixture()

	payload := `[{"title": "T", "content": "c", "tags": "one, two"}]`
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{Format: "json"})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Len(t, result.Imported[0].Tags, 2)
}

func TestImport_Markdown(t *testing.T) {
	ie, _, _ := newIEFixture()

	payload := "# Prompt One\n\nbody one\n\n## Prompt Two\n\nbody two\n"
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{Format: "markdown"})
	require.NoError(t, err)
	require.Len(t, result.Imported, 2)
	assert.Equal(t, "Prompt One", result.Imported[0].Title)
	assert.Equal(t, "body one", result.Imported[0].Content)
}

func TestImport_FabricPattern(t *testing.T) {
	ie, _, _ := newIEFixture()

	payload := "# Summarize\n## Condense any text\nYou are an expert summarizer.\nProduce bullet points."
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{Format: "fabric"})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)

	p := result.Imported[0]
	assert.Equal(t, "Summarize", p.Title)
	assert.Equal(t, "Condense any text", p.Description)
	assert.Equal(t, "system", string(p.PromptType))
	assert.Contains(t, p.Content, "expert summarizer")
	assert.Len(t, p.Tags, 2)
}

func TestImport_CSV(t *testing.T) {
	ie, _, _ := newIEFixture()

	payload := "title,content,tags,type\nCSV prompt,some content,\"a, b\",system\n"
	result, err := ie.Import(context.Background(), "user-1", []byte(payload), ImportOptions{Format: "csv"})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "CSV prompt", result.Imported[0].Title)
	assert.Equal(t, "system", string(result.Imported[0].PromptType))
	assert.Len(t, result.Imported[0].Tags, 2)
}

func TestExport_CSVAndMarkdown(t *testing.T) {
	ie, prompts, _ := newIEFixture()
	seedPrompt(t, prompts, "Exported", "the content", []string{"tag1"})

	csvData, contentType, err := ie.Export(context.Background(), "user-1", ExportOptions{
		Format:          "csv",
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(csvData), "Exported")
	assert.True(t, strings.HasPrefix(string(csvData), "id,title,content"))

	mdData, contentType, err := ie.Export(context.Background(), "user-1", ExportOptions{
		Format:          "markdown",
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", contentType)
	assert.Contains(t, string(mdData), "## 1. Exported")
	assert.Contains(t, string(mdData), "the content")
}

func TestExport_UnknownFormatRejected(t *testing.T) {
	ie, _, _ := newIEFixture()

	_, _, err := ie.Export(context.Background(), "user-1", ExportOptions{Format: "xml"})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)

	_, err = ie.Import(context.Background(), "user-1", []byte("{}"), ImportOptions{Format: "xml"})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}
