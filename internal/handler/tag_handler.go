package handler

import (
	"github.com/gofiber/fiber/v3"

	"prombank/internal/service"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	tagService *service.TagService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// Register sets up tag routes on a protected group.
func (h *TagHandler) Register(api fiber.Router) {
	tags := api.Group("/tags")
	tags.Get("/", h.List)
	tags.Get("/search", h.Search)
	tags.Get("/popular", h.Popular)
	tags.Delete("/:id", h.Delete)
}

// List returns the full tag vocabulary.
func (h *TagHandler) List(c fiber.Ctx) error {
	tags, err := h.tagService.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags, "count": len(tags)})
}

// Search returns tags matching a name substring.
func (h *TagHandler) Search(c fiber.Ctx) error {
	tags, err := h.tagService.Search(c.Context(), c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags, "count": len(tags)})
}

// Popular returns the most used tags with their usage counts.
func (h *TagHandler) Popular(c fiber.Ctx) error {
	tags, err := h.tagService.Popular(c.Context(), queryInt(c, "limit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags, "count": len(tags)})
}

// Delete removes a tag everywhere.
func (h *TagHandler) Delete(c fiber.Ctx) error {
	if err := h.tagService.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
