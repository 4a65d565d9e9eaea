package handler

import (
	"github.com/gofiber/fiber/v3"

	"prombank/internal/service"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Register sets up category routes on a protected group.
func (h *CategoryHandler) Register(api fiber.Router) {
	categories := api.Group("/categories")
	categories.Get("/", h.List)
	categories.Post("/", h.Create)
	categories.Get("/:id", h.Get)
	categories.Patch("/:id", h.Update)
	categories.Delete("/:id", h.Delete)
}

// List returns all categories, active only unless ?all=true.
func (h *CategoryHandler) List(c fiber.Ctx) error {
	activeOnly := c.Query("all") != "true"

	categories, err := h.categoryService.List(c.Context(), activeOnly)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories, "count": len(categories)})
}

// Create adds a category with an instance-unique name.
func (h *CategoryHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.categoryService.Create(c.Context(), body.Name, body.Description, body.Color)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Get returns one category.
func (h *CategoryHandler) Get(c fiber.Ctx) error {
	category, err := h.categoryService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(category)
}

// Update changes the provided category fields.
func (h *CategoryHandler) Update(c fiber.Ctx) error {
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.categoryService.Update(c.Context(), c.Params("id"), body.Name, body.Description, body.Color, body.IsActive)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(updated)
}

// Delete removes a category; its prompts become uncategorized.
func (h *CategoryHandler) Delete(c fiber.Ctx) error {
	if err := h.categoryService.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
