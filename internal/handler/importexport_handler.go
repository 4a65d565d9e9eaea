package handler

import (
	"github.com/gofiber/fiber/v3"

	"prombank/internal/middleware"
	"prombank/internal/service"
)

// ImportExportHandler handles bulk prompt import and export.
type ImportExportHandler struct {
	ieService *service.ImportExportService
}

// NewImportExportHandler creates a new import/export handler.
func NewImportExportHandler(ieService *service.ImportExportService) *ImportExportHandler {
	return &ImportExportHandler{ieService: ieService}
}

// Register sets up import/export routes on a protected group.
func (h *ImportExportHandler) Register(api fiber.Router) {
	prompts := api.Group("/prompts")
	prompts.Post("/export", h.Export)
	prompts.Post("/import", h.Import)
}

// Export serializes the selected prompts in the requested format.
func (h *ImportExportHandler) Export(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	var body struct {
		Format          string   `json:"format"`
		PromptIDs       []string `json:"prompt_ids"`
		IncludeVersions bool     `json:"include_versions"`
		IncludeMetadata *bool    `json:"include_metadata"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	includeMetadata := body.IncludeMetadata == nil || *body.IncludeMetadata

	data, contentType, err := h.ieService.Export(c.Context(), uc.UserID, service.ExportOptions{
		Format:          body.Format,
		PromptIDs:       body.PromptIDs,
		IncludeVersions: body.IncludeVersions,
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// Import parses the payload and stores each prompt, reporting per-item errors.
func (h *ImportExportHandler) Import(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	var body struct {
		Format          string `json:"format"`
		Data            string `json:"data"`
		SourceType      string `json:"source_type"`
		DefaultCategory string `json:"default_category"`
		SkipDuplicates  *bool  `json:"skip_duplicates"`
		UpdateExisting  bool   `json:"update_existing"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Data == "" {
		return badRequest(c, "missing data")
	}
	skipDuplicates := body.SkipDuplicates == nil || *body.SkipDuplicates

	result, err := h.ieService.Import(c.Context(), uc.UserID, []byte(body.Data), service.ImportOptions{
		Format:          body.Format,
		SourceType:      body.SourceType,
		DefaultCategory: body.DefaultCategory,
		SkipDuplicates:  skipDuplicates,
		UpdateExisting:  body.UpdateExisting,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
