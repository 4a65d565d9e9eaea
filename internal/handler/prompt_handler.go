package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"prombank/internal/domain"
	"prombank/internal/middleware"
	"prombank/internal/service"
)

// PromptHandler handles prompt CRUD endpoints.
type PromptHandler struct {
	promptService *service.PromptService
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(promptService *service.PromptService) *PromptHandler {
	return &PromptHandler{promptService: promptService}
}

// Register sets up prompt routes on a protected group.
func (h *PromptHandler) Register(api fiber.Router) {
	prompts := api.Group("/prompts")
	prompts.Get("/", h.List)
	prompts.Post("/", h.Create)
	prompts.Get("/:id", h.Get)
	prompts.Patch("/:id", h.Update)
	prompts.Put("/:id", h.Update)
	prompts.Delete("/:id", h.Delete)
	prompts.Post("/:id/use", h.Use)
	prompts.Post("/:id/archive", h.Archive)
	prompts.Get("/:id/versions", h.Versions)
}

type promptCreateRequest struct {
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Content           string            `json:"content"`
	Type              domain.PromptType `json:"prompt_type"`
	CategoryID        *string           `json:"category_id"`
	Tags              []string          `json:"tags"`
	IsPublic          bool              `json:"is_public"`
	IsFavorite        bool              `json:"is_favorite"`
	IsTemplate        bool              `json:"is_template"`
	TemplateVariables json.RawMessage   `json:"template_variables"`
	SourceURL         string            `json:"source_url"`
	SourceType        string            `json:"source_type"`
}

// promptUpdateRequest distinguishes absent fields (nil, untouched) from
// explicit values. A present-but-empty category_id clears the category; a
// present tags list replaces the tag set.
type promptUpdateRequest struct {
	Title             *string              `json:"title"`
	Description       *string              `json:"description"`
	Content           *string              `json:"content"`
	CategoryID        *string              `json:"category_id"`
	Tags              *[]string            `json:"tags"`
	Status            *domain.PromptStatus `json:"status"`
	IsPublic          *bool                `json:"is_public"`
	IsFavorite        *bool                `json:"is_favorite"`
	TemplateVariables json.RawMessage      `json:"template_variables"`
	CreateVersion     bool                 `json:"create_version"`
	VersionComment    string               `json:"version_comment"`
}

// List returns prompts visible to the caller, filtered and paginated.
func (h *PromptHandler) List(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	filter := domain.PromptFilter{
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		Type:       domain.PromptType(c.Query("prompt_type")),
		Status:     domain.PromptStatus(c.Query("status")),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
	if tags := c.Query("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Tags = append(filter.Tags, t)
			}
		}
	}
	filter.IsPublic = queryBool(c, "is_public")
	filter.IsFavorite = queryBool(c, "is_favorite")

	prompts, total, err := h.promptService.List(c.Context(), filter, uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"prompts": prompts,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Get returns one prompt, optionally with its version history.
func (h *PromptHandler) Get(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	includeVersions := c.Query("include_versions") == "true"

	p, err := h.promptService.Get(c.Context(), c.Params("id"), uc.UserID, includeVersions)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Create stores a new prompt owned by the caller.
func (h *PromptHandler) Create(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	var body promptCreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.promptService.Create(c.Context(), uc.UserID, service.CreatePromptInput{
		Title:             body.Title,
		Description:       body.Description,
		Content:           body.Content,
		Type:              body.Type,
		CategoryID:        body.CategoryID,
		Tags:              body.Tags,
		IsPublic:          body.IsPublic,
		IsFavorite:        body.IsFavorite,
		IsTemplate:        body.IsTemplate,
		TemplateVariables: body.TemplateVariables,
		SourceURL:         body.SourceURL,
		SourceType:        body.SourceType,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update applies a partial update to an owned prompt.
func (h *PromptHandler) Update(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	var body promptUpdateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	upd := domain.PromptUpdate{
		Title:             body.Title,
		Description:       body.Description,
		Content:           body.Content,
		CategoryID:        body.CategoryID,
		Status:            body.Status,
		IsPublic:          body.IsPublic,
		IsFavorite:        body.IsFavorite,
		TemplateVariables: body.TemplateVariables,
		CreateVersion:     body.CreateVersion,
		VersionComment:    body.VersionComment,
	}
	if body.Tags != nil {
		upd.Tags = *body.Tags
		upd.TagsSet = true
	}

	p, err := h.promptService.Update(c.Context(), c.Params("id"), uc.UserID, upd)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Delete removes an owned prompt and its version history.
func (h *PromptHandler) Delete(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	if err := h.promptService.Delete(c.Context(), c.Params("id"), uc.UserID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Use stamps a prompt usage and returns the updated prompt.
func (h *PromptHandler) Use(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	p, err := h.promptService.Use(c.Context(), c.Params("id"), uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Archive retires a prompt without deleting it.
func (h *PromptHandler) Archive(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	p, err := h.promptService.Archive(c.Context(), c.Params("id"), uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Versions returns a prompt's version history, newest first.
func (h *PromptHandler) Versions(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	versions, err := h.promptService.Versions(c.Context(), c.Params("id"), uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"versions": versions, "count": len(versions)})
}

func queryInt(c fiber.Ctx, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func queryBool(c fiber.Ctx, name string) *bool {
	switch c.Query(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
