package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"prombank/internal/middleware"
	"prombank/internal/service"
)

// TokenHandler handles API token management endpoints.
type TokenHandler struct {
	tokenService *service.TokenService
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// Register sets up API token routes on a protected group.
func (h *TokenHandler) Register(api fiber.Router) {
	tokens := api.Group("/api-tokens")
	tokens.Post("/", h.Create)
	tokens.Get("/", h.List)
	tokens.Delete("/:id", h.Revoke)
}

// Create mints a new API token. The secret appears in this response only.
func (h *TokenHandler) Create(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	var body struct {
		Name      string     `json:"name"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.tokenService.Create(c.Context(), uc.UserID, body.Name, body.ExpiresAt)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns the caller's active tokens without secret material.
func (h *TokenHandler) List(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	tokens, err := h.tokenService.List(c.Context(), uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tokens": tokens, "count": len(tokens)})
}

// Revoke marks a token revoked. Tokens of other users look like 404.
func (h *TokenHandler) Revoke(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)

	if err := h.tokenService.Revoke(c.Context(), uc.UserID, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
