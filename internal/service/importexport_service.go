package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"prombank/internal/domain"
	"prombank/internal/port"
)

const exportFormatName = "prombank_export"

// ExportOptions selects what to export and how.
type ExportOptions struct {
	Format          string   // json, yaml, csv, markdown
	PromptIDs       []string // empty means all prompts visible to the user
	IncludeVersions bool
	IncludeMetadata bool
}

// ImportOptions controls how parsed prompts are stored.
type ImportOptions struct {
	Format          string // json, yaml, csv, markdown, fabric
	SourceType      string
	DefaultCategory string
	SkipDuplicates  bool
	UpdateExisting  bool
}

// ImportResult reports what an import did. Item errors do not abort the run.
type ImportResult struct {
	Imported []domain.Prompt `json:"imported"`
	Skipped  int             `json:"skipped"`
	Errors   []string        `json:"errors"`
}

// importItem is one prompt as parsed from any import format.
type importItem struct {
	Title             string          `json:"title" yaml:"title"`
	Description       string          `json:"description" yaml:"description"`
	Content           string          `json:"content" yaml:"content"`
	Type              string          `json:"type" yaml:"type"`
	Category          string          `json:"category" yaml:"category"`
	Tags              tagList         `json:"tags" yaml:"tags"`
	IsPublic          bool            `json:"is_public" yaml:"is_public"`
	IsTemplate        bool            `json:"is_template" yaml:"is_template"`
	TemplateVariables json.RawMessage `json:"template_variables" yaml:"-"`
}

// tagList accepts both a list of strings and a single comma-separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = splitTags(s)
	return nil
}

func (t *tagList) UnmarshalYAML(value *yaml.Node) error {
	var list []string
	if err := value.Decode(&list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*t = splitTags(s)
	return nil
}

func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// exportEnvelope is the top-level document for json and yaml exports.
type exportEnvelope struct {
	Format       string         `json:"format" yaml:"format"`
	Version      string         `json:"version" yaml:"version"`
	ExportedAt   time.Time      `json:"exported_at" yaml:"exported_at"`
	TotalPrompts int            `json:"total_prompts" yaml:"total_prompts"`
	Prompts      []exportPrompt `json:"prompts" yaml:"prompts"`
}

type exportPrompt struct {
	ID                string          `json:"id,omitempty" yaml:"id,omitempty"`
	Title             string          `json:"title" yaml:"title"`
	Description       string          `json:"description,omitempty" yaml:"description,omitempty"`
	Content           string          `json:"content" yaml:"content"`
	Type              string          `json:"type" yaml:"type"`
	Status            string          `json:"status" yaml:"status"`
	Version           string          `json:"version,omitempty" yaml:"version,omitempty"`
	Category          string          `json:"category,omitempty" yaml:"category,omitempty"`
	Tags              []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsPublic          bool            `json:"is_public" yaml:"is_public"`
	IsFavorite        bool            `json:"is_favorite,omitempty" yaml:"is_favorite,omitempty"`
	IsTemplate        bool            `json:"is_template,omitempty" yaml:"is_template,omitempty"`
	TemplateVariables json.RawMessage `json:"template_variables,omitempty" yaml:"-"`
	SourceURL         string          `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SourceType        string          `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	UsageCount        int             `json:"usage_count,omitempty" yaml:"usage_count,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Versions          []exportVersion `json:"versions,omitempty" yaml:"versions,omitempty"`
}

type exportVersion struct {
	Version   string    `json:"version" yaml:"version"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	ChangeLog string    `json:"change_log,omitempty" yaml:"change_log,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ImportExportService moves prompts across serialization formats. It builds
// on the prompt and category services so imports get the same validation,
// version history and dedup rules as API writes.
type ImportExportService struct {
	prompts    *PromptService
	categories *CategoryService
}

func NewImportExportService(prompts *PromptService, categories *CategoryService) *ImportExportService {
	return &ImportExportService{prompts: prompts, categories: categories}
}

// Export serializes the selected prompts. An empty PromptIDs list exports
// every prompt visible to the user. Returns the payload and its MIME type.
func (s *ImportExportService) Export(ctx context.Context, userID string, opts ExportOptions) ([]byte, string, error) {
	prompts, err := s.collect(ctx, userID, opts)
	if err != nil {
		return nil, "", err
	}

	switch strings.ToLower(opts.Format) {
	case "", "json":
		data, err := json.MarshalIndent(s.envelope(prompts, opts), "", "  ")
		return data, "application/json", err
	case "yaml":
		data, err := yaml.Marshal(s.envelope(prompts, opts))
		return data, "application/yaml", err
	case "csv":
		data, err := exportCSV(prompts, opts.IncludeMetadata)
		return data, "text/csv", err
	case "markdown":
		return exportMarkdown(prompts, opts.IncludeMetadata), "text/markdown", nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported export format %q", port.ErrInvalidArgument, opts.Format)
	}
}

// Import parses the payload and stores each prompt, collecting per-item
// errors instead of failing the whole batch.
func (s *ImportExportService) Import(ctx context.Context, userID string, data []byte, opts ImportOptions) (*ImportResult, error) {
	items, err := parseImport(data, opts.Format)
	if err != nil {
		return nil, err
	}

	var defaultCategoryID *string
	if opts.DefaultCategory != "" {
		c, err := s.categories.GetOrCreate(ctx, opts.DefaultCategory)
		if err != nil {
			return nil, fmt.Errorf("resolve default category: %w", err)
		}
		defaultCategoryID = &c.ID
	}

	result := &ImportResult{Errors: []string{}}
	for i, item := range items {
		p, err := s.importOne(ctx, userID, item, defaultCategoryID, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("prompt %d: %v", i+1, err))
			continue
		}
		if p == nil {
			result.Skipped++
			continue
		}
		result.Imported = append(result.Imported, *p)
	}

	slog.Info("prompts imported",
		"user_id", userID,
		"format", opts.Format,
		"imported", len(result.Imported),
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func (s *ImportExportService) collect(ctx context.Context, userID string, opts ExportOptions) ([]domain.Prompt, error) {
	if len(opts.PromptIDs) > 0 {
		prompts := make([]domain.Prompt, 0, len(opts.PromptIDs))
		for _, id := range opts.PromptIDs {
			p, err := s.prompts.Get(ctx, id, userID, opts.IncludeVersions)
			if err != nil {
				return nil, fmt.Errorf("export prompt %s: %w", id, err)
			}
			prompts = append(prompts, *p)
		}
		return prompts, nil
	}

	var all []domain.Prompt
	filter := domain.PromptFilter{Limit: s.prompts.maxPageSize}
	for {
		page, total, err := s.prompts.List(ctx, filter, userID)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		filter.Offset += len(page)
		if len(page) == 0 || filter.Offset >= total {
			return all, nil
		}
	}
}

func (s *ImportExportService) envelope(prompts []domain.Prompt, opts ExportOptions) exportEnvelope {
	env := exportEnvelope{
		Format:       exportFormatName,
		Version:      "1.0",
		ExportedAt:   time.Now().UTC(),
		TotalPrompts: len(prompts),
		Prompts:      make([]exportPrompt, 0, len(prompts)),
	}
	for _, p := range prompts {
		ep := exportPrompt{
			ID:       p.ID,
			Title:    p.Title,
			Content:  p.Content,
			Type:     string(p.PromptType),
			Status:   string(p.Status),
			Version:  p.Version,
			IsPublic: p.IsPublic,
		}
		if opts.IncludeMetadata {
			ep.Description = p.Description
			if p.Category != nil {
				ep.Category = p.Category.Name
			}
			ep.Tags = tagNames(p.Tags)
			ep.IsFavorite = p.IsFavorite
			ep.IsTemplate = p.IsTemplate
			ep.TemplateVariables = p.TemplateVariables
			ep.SourceURL = p.SourceURL
			ep.SourceType = p.SourceType
			ep.UsageCount = p.UsageCount
			ep.CreatedAt = p.CreatedAt
			ep.UpdatedAt = p.UpdatedAt
		}
		if opts.IncludeVersions {
			for _, v := range p.Versions {
				ep.Versions = append(ep.Versions, exportVersion{
					Version:   v.Version,
					Title:     v.Title,
					Content:   v.Content,
					ChangeLog: v.ChangeLog,
					CreatedAt: v.CreatedAt,
				})
			}
		}
		env.Prompts = append(env.Prompts, ep)
	}
	return env
}

func (s *ImportExportService) importOne(ctx context.Context, userID string, item importItem, defaultCategoryID *string, opts ImportOptions) (*domain.Prompt, error) {
	title := strings.TrimSpace(item.Title)
	content := strings.TrimSpace(item.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", port.ErrInvalidArgument)
	}

	existing, err := s.prompts.Duplicates(ctx, content, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if opts.UpdateExisting {
			comment := "Updated from import"
			return s.prompts.Update(ctx, existing[0].ID, userID, domain.PromptUpdate{
				Title:          &title,
				Description:    &item.Description,
				Content:        &content,
				CreateVersion:  true,
				VersionComment: comment,
			})
		}
		if opts.SkipDuplicates {
			return nil, nil
		}
	}

	categoryID := defaultCategoryID
	if item.Category != "" {
		c, err := s.categories.GetOrCreate(ctx, item.Category)
		if err != nil {
			return nil, err
		}
		categoryID = &c.ID
	}

	promptType := domain.TypeUser
	if item.Type != "" && domain.ValidType(domain.PromptType(item.Type)) {
		promptType = domain.PromptType(item.Type)
	}

	return s.prompts.Create(ctx, userID, CreatePromptInput{
		Title:             title,
		Description:       item.Description,
		Content:           content,
		Type:              promptType,
		CategoryID:        categoryID,
		Tags:              item.Tags,
		IsPublic:          item.IsPublic,
		IsTemplate:        item.IsTemplate,
		TemplateVariables: item.TemplateVariables,
		SourceType:        opts.SourceType,
	})
}

func tagNames(tags []domain.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func exportCSV(prompts []domain.Prompt, includeMetadata bool) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	headers := []string{"id", "title", "content", "description", "type", "status", "version"}
	if includeMetadata {
		headers = append(headers, "category", "tags", "is_public", "is_favorite", "usage_count")
	}
	if err := w.Write(headers); err != nil {
		return nil, err
	}

	for _, p := range prompts {
		row := []string{p.ID, p.Title, p.Content, p.Description, string(p.PromptType), string(p.Status), p.Version}
		if includeMetadata {
			category := ""
			if p.Category != nil {
				category = p.Category.Name
			}
			row = append(row,
				category,
				strings.Join(tagNames(p.Tags), ", "),
				strconv.FormatBool(p.IsPublic),
				strconv.FormatBool(p.IsFavorite),
				strconv.Itoa(p.UsageCount))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return []byte(sb.String()), w.Error()
}

func exportMarkdown(prompts []domain.Prompt, includeMetadata bool) []byte {
	var sb strings.Builder
	sb.WriteString("# Prombank Export\n\n")
	fmt.Fprintf(&sb, "Exported on: %s UTC\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Total prompts: %d\n\n", len(prompts))

	for i, p := range prompts {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, p.Title)
		if includeMetadata {
			fmt.Fprintf(&sb, "**Type:** %s\n", p.PromptType)
			fmt.Fprintf(&sb, "**Status:** %s\n", p.Status)
			category := "None"
			if p.Category != nil {
				category = p.Category.Name
			}
			fmt.Fprintf(&sb, "**Category:** %s\n", category)
			tags := "None"
			if len(p.Tags) > 0 {
				tags = strings.Join(tagNames(p.Tags), ", ")
			}
			fmt.Fprintf(&sb, "**Tags:** %s\n\n", tags)
		}
		if p.Description != "" {
			fmt.Fprintf(&sb, "**Description:** %s\n\n", p.Description)
		}
		fmt.Fprintf(&sb, "**Content:**\n```\n%s\n```\n\n", p.Content)
	}
	return []byte(sb.String())
}

func parseImport(data []byte, format string) ([]importItem, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return parseEnvelope(data, json.Unmarshal)
	case "yaml":
		return parseEnvelope(data, yaml.Unmarshal)
	case "csv":
		return parseCSVImport(data)
	case "markdown":
		return parseMarkdownImport(data), nil
	case "fabric":
		return []importItem{parseFabricPattern(data)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported import format %q", port.ErrInvalidArgument, format)
	}
}

// parseEnvelope accepts an export envelope, a bare list, or a single object.
func parseEnvelope(data []byte, unmarshal func([]byte, any) error) ([]importItem, error) {
	var env struct {
		Prompts []importItem `json:"prompts" yaml:"prompts"`
	}
	if err := unmarshal(data, &env); err == nil && len(env.Prompts) > 0 {
		return env.Prompts, nil
	}

	var list []importItem
	if err := unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var single importItem
	if err := unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInvalidArgument, err)
	}
	if single.Title == "" && single.Content == "" {
		return nil, fmt.Errorf("%w: no prompts found in payload", port.ErrInvalidArgument)
	}
	return []importItem{single}, nil
}

func parseCSVImport(data []byte) ([]importItem, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInvalidArgument, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: csv payload has no data rows", port.ErrInvalidArgument)
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	items := make([]importItem, 0, len(records)-1)
	for _, row := range records[1:] {
		items = append(items, importItem{
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Content:     field(row, "content"),
			Type:        field(row, "type"),
			Category:    field(row, "category"),
			Tags:        splitTags(field(row, "tags")),
			IsPublic:    field(row, "is_public") == "true",
			IsTemplate:  field(row, "is_template") == "true",
		})
	}
	return items, nil
}

var markdownHeading = regexp.MustCompile(`^#+\s*(.+)`)

// parseMarkdownImport treats every heading as a prompt title and the text
// beneath it as the content.
func parseMarkdownImport(data []byte) []importItem {
	var items []importItem
	var title string
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if title != "" && content != "" {
			items = append(items, importItem{
				Title:   title,
				Content: content,
				Type:    string(domain.TypeUser),
			})
		}
	}

	for _, line := range strings.Split(string(data), "\n") {
		if m := markdownHeading.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			body = nil
			continue
		}
		body = append(body, line)
	}
	flush()
	return items
}

// parseFabricPattern reads a single Fabric-style pattern file: the top-level
// heading is the title, a second-level heading becomes the description and
// everything else is the system prompt body.
func parseFabricPattern(data []byte) importItem {
	item := importItem{
		Title: "Fabric Pattern",
		Type:  string(domain.TypeSystem),
		Tags:  tagList{"fabric", "pattern"},
	}
	var contentLines []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			item.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "## "):
			item.Description = strings.TrimSpace(line[3:])
		default:
			contentLines = append(contentLines, line)
		}
	}
	item.Content = strings.TrimSpace(strings.Join(contentLines, "\n"))
	return item
}
