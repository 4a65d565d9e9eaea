package handler

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"

	"prombank/internal/middleware"
	"prombank/internal/service"
)

// AuthHandler handles the login flow and session endpoints.
type AuthHandler struct {
	authService *service.AuthService
	frontendURL string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{authService: authService, frontendURL: frontendURL}
}

// RegisterPublic sets up the routes that must work without a credential.
func (h *AuthHandler) RegisterPublic(app *fiber.App) {
	auth := app.Group("/api/v1/auth")
	auth.Get("/login/start", h.LoginStart)
	auth.Get("/login/callback", h.LoginCallback)
	auth.Post("/token/refresh", h.Refresh)
}

// RegisterProtected sets up the routes behind the auth guard.
func (h *AuthHandler) RegisterProtected(api fiber.Router) {
	auth := api.Group("/auth")
	auth.Post("/logout", h.Logout)
	auth.Get("/me", h.Me)
}

// LoginStart returns the provider authorization URL with a signed state.
func (h *AuthHandler) LoginStart(c fiber.Ctx) error {
	authURL, state, err := h.authService.LoginStart()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"authorization_url": authURL,
		"state":             state,
	})
}

// LoginCallback completes the OAuth flow and issues a session token pair.
func (h *AuthHandler) LoginCallback(c fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return badRequest(c, "missing authorization code")
	}

	tokens, user, err := h.authService.LoginCallback(c.Context(), code, c.Query("state"))
	if err != nil {
		return fail(c, err)
	}

	// Browsers land here straight from the provider redirect; send them back
	// to the UI with the token pair. API clients get plain JSON.
	if strings.Contains(c.Get(fiber.HeaderAccept), "text/html") {
		q := url.Values{}
		q.Set("access_token", tokens.AccessToken)
		q.Set("refresh_token", tokens.RefreshToken)
		return c.Redirect().To(h.frontendURL + "/?" + q.Encode())
	}

	return c.JSON(fiber.Map{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"token_type":    tokens.TokenType,
		"expires_in":    tokens.ExpiresIn,
		"user":          user,
	})
}

// Refresh rotates a refresh token into a new session token pair.
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RefreshToken == "" {
		return badRequest(c, "missing refresh_token")
	}

	tokens, err := h.authService.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tokens)
}

// Logout revokes all of the caller's refresh tokens.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if err := h.authService.Logout(c.Context(), uc.UserID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	user, err := h.authService.Me(c.Context(), uc.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}
