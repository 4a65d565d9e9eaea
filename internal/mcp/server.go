package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"prombank/internal/domain"
	"prombank/internal/service"
)

type authHeaderKey struct{}

// Server exposes the prompt library as MCP tools over streamable HTTP.
// Every tool call authenticates with an API token through the same guard the
// REST API uses, so revocations apply to both surfaces at once.
type Server struct {
	guard      *service.Guard
	prompts    *service.PromptService
	categories *service.CategoryService
	tags       *service.TagService
	ie         *service.ImportExportService
	httpServer *server.StreamableHTTPServer
}

// NewServer creates the MCP server and registers all tools.
func NewServer(
	version string,
	guard *service.Guard,
	prompts *service.PromptService,
	categories *service.CategoryService,
	tags *service.TagService,
	ie *service.ImportExportService,
) *Server {
	s := &Server{
		guard:      guard,
		prompts:    prompts,
		categories: categories,
		tags:       tags,
		ie:         ie,
	}

	mcpServer := server.NewMCPServer(
		"prombank",
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools(mcpServer)

	s.httpServer = server.NewStreamableHTTPServer(
		mcpServer,
		server.WithHTTPContextFunc(captureAuthHeader),
	)
	return s
}

// Start serves MCP over streamable HTTP. Blocks until Shutdown.
func (s *Server) Start(addr string) error {
	return s.httpServer.Start(addr)
}

// Shutdown stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// captureAuthHeader stashes the Authorization header so tool handlers can
// authenticate; the MCP layer itself has no notion of credentials.
func captureAuthHeader(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, authHeaderKey{}, r.Header.Get("Authorization"))
}

func (s *Server) authenticate(ctx context.Context) (*domain.UserContext, error) {
	header, _ := ctx.Value(authHeaderKey{}).(string)
	var bearer string
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		bearer = parts[1]
	}
	return s.guard.Authenticate(ctx, bearer)
}

func (s *Server) registerTools(m *server.MCPServer) {
	m.AddTool(mcp.NewTool("search_prompts",
		mcp.WithDescription("Search prompts by text, category, tags, type or status"),
		mcp.WithString("query", mcp.Description("Substring to match in title, description or content")),
		mcp.WithString("category_id", mcp.Description("Filter by category id")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; prompts must carry all of them")),
		mcp.WithString("prompt_type", mcp.Description("system, user, assistant, template or function")),
		mcp.WithString("status", mcp.Description("draft, active, archived or deprecated")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), s.handleSearchPrompts)

	m.AddTool(mcp.NewTool("get_prompt",
		mcp.WithDescription("Get a single prompt by id, optionally with its version history"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id")),
		mcp.WithBoolean("include_versions", mcp.Description("Include the version history")),
	), s.handleGetPrompt)

	m.AddTool(mcp.NewTool("create_prompt",
		mcp.WithDescription("Create a new prompt"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Prompt title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Prompt body")),
		mcp.WithString("description", mcp.Description("Short description")),
		mcp.WithString("prompt_type", mcp.Description("system, user, assistant, template or function")),
		mcp.WithString("category", mcp.Description("Category name, created if missing")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names")),
	), s.handleCreatePrompt)

	m.AddTool(mcp.NewTool("update_prompt",
		mcp.WithDescription("Update fields of an existing prompt; omitted fields stay unchanged"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New body; records a new version")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithBoolean("create_version", mcp.Description("Force a major version bump")),
		mcp.WithString("version_comment", mcp.Description("Change log entry for the new version")),
	), s.handleUpdatePrompt)

	m.AddTool(mcp.NewTool("delete_prompt",
		mcp.WithDescription("Delete a prompt and its version history"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id")),
	), s.handleDeletePrompt)

	m.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all active categories"),
	), s.handleListCategories)

	m.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the tag vocabulary"),
	), s.handleListTags)

	m.AddTool(mcp.NewTool("import_prompts",
		mcp.WithDescription("Import prompts from a serialized payload"),
		mcp.WithString("data", mcp.Required(), mcp.Description("Payload to import")),
		mcp.WithString("format", mcp.Description("json, yaml, csv, markdown or fabric; default json")),
		mcp.WithString("default_category", mcp.Description("Category for prompts that name none")),
		mcp.WithBoolean("update_existing", mcp.Description("Update prompts whose content already exists")),
	), s.handleImportPrompts)

	m.AddTool(mcp.NewTool("export_prompts",
		mcp.WithDescription("Export prompts to a serialized format"),
		mcp.WithString("format", mcp.Description("json, yaml, csv or markdown; default json")),
		mcp.WithString("prompt_ids", mcp.Description("Comma-separated prompt ids; empty exports everything")),
		mcp.WithBoolean("include_versions", mcp.Description("Include version history (json and yaml only)")),
	), s.handleExportPrompts)
}

func (s *Server) handleSearchPrompts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	filter := domain.PromptFilter{
		Search:     request.GetString("query", ""),
		CategoryID: request.GetString("category_id", ""),
		Type:       domain.PromptType(request.GetString("prompt_type", "")),
		Status:     domain.PromptStatus(request.GetString("status", "")),
		Limit:      request.GetInt("limit", 0),
	}
	for _, t := range strings.Split(request.GetString("tags", ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Tags = append(filter.Tags, t)
		}
	}

	prompts, total, err := s.prompts.List(ctx, filter, uc.UserID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"prompts": prompts, "total": total})
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	p, err := s.prompts.Get(ctx, id, uc.UserID, request.GetBool("include_versions", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get prompt: %v", err)), nil
	}
	return jsonResult(p)
}

func (s *Server) handleCreatePrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required"), nil
	}

	var categoryID *string
	if name := request.GetString("category", ""); name != "" {
		c, err := s.categories.GetOrCreate(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve category: %v", err)), nil
		}
		categoryID = &c.ID
	}

	var tags []string
	for _, t := range strings.Split(request.GetString("tags", ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	p, err := s.prompts.Create(ctx, uc.UserID, service.CreatePromptInput{
		Title:       title,
		Content:     content,
		Description: request.GetString("description", ""),
		Type:        domain.PromptType(request.GetString("prompt_type", "")),
		CategoryID:  categoryID,
		Tags:        tags,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create prompt: %v", err)), nil
	}
	return jsonResult(p)
}

func (s *Server) handleUpdatePrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	upd := domain.PromptUpdate{
		CreateVersion:  request.GetBool("create_version", false),
		VersionComment: request.GetString("version_comment", ""),
	}
	if v := request.GetString("title", ""); v != "" {
		upd.Title = &v
	}
	if v := request.GetString("content", ""); v != "" {
		upd.Content = &v
	}
	if v := request.GetString("description", ""); v != "" {
		upd.Description = &v
	}

	p, err := s.prompts.Update(ctx, id, uc.UserID, upd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update prompt: %v", err)), nil
	}
	return jsonResult(p)
}

func (s *Server) handleDeletePrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	if err := s.prompts.Delete(ctx, id, uc.UserID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete prompt: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("prompt %s deleted", id)), nil
}

func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	categories, err := s.categories.List(ctx, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list categories: %v", err)), nil
	}
	return jsonResult(map[string]any{"categories": categories})
}

func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	tags, err := s.tags.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list tags: %v", err)), nil
	}
	return jsonResult(map[string]any{"tags": tags})
}

func (s *Server) handleImportPrompts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	data, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError("data argument is required"), nil
	}

	result, err := s.ie.Import(ctx, uc.UserID, []byte(data), service.ImportOptions{
		Format:          request.GetString("format", "json"),
		DefaultCategory: request.GetString("default_category", ""),
		SkipDuplicates:  true,
		UpdateExisting:  request.GetBool("update_existing", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import prompts: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleExportPrompts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uc, err := s.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError("authentication failed: provide a valid API token"), nil
	}

	var ids []string
	for _, id := range strings.Split(request.GetString("prompt_ids", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	data, _, err := s.ie.Export(ctx, uc.UserID, service.ExportOptions{
		Format:          request.GetString("format", "json"),
		PromptIDs:       ids,
		IncludeVersions: request.GetBool("include_versions", false),
		IncludeMetadata: true,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export prompts: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
