package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"prombank/internal/domain"
	"prombank/internal/service"
)

// AuthMiddleware validates the bearer credential on every request and
// injects the resolved UserContext into the request locals. Both JWT access
// tokens and API tokens are accepted; the guard decides which is which.
func AuthMiddleware(guard *service.Guard) fiber.Handler {
	return func(c fiber.Ctx) error {
		var bearer string
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				bearer = parts[1]
			}
		}

		uc, err := guard.Authenticate(c.Context(), bearer)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "unauthenticated",
					"message": "missing or invalid credentials",
				},
			})
		}

		c.Locals("user", uc)
		return c.Next()
	}
}

// GetUserContext extracts the UserContext from Fiber locals.
func GetUserContext(c fiber.Ctx) *domain.UserContext {
	u, ok := c.Locals("user").(*domain.UserContext)
	if !ok {
		return nil
	}
	return u
}
