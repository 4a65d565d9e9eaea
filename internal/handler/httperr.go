package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"prombank/internal/port"
)

// fail translates a service error into the API's error envelope. Unknown
// errors are logged and returned as a generic 500 without detail.
func fail(c fiber.Ctx, err error) error {
	var (
		status  int
		code    string
		message = err.Error()
	)

	switch {
	case errors.Is(err, port.ErrInvalidArgument):
		status, code = fiber.StatusBadRequest, "invalid_argument"
	case errors.Is(err, port.ErrStateMismatch):
		status, code = fiber.StatusBadRequest, "state_mismatch"
	case errors.Is(err, port.ErrInvalidToken):
		status, code = fiber.StatusUnauthorized, "invalid_token"
	case errors.Is(err, port.ErrUnauthenticated):
		status, code = fiber.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, port.ErrNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, port.ErrDuplicateName):
		status, code = fiber.StatusConflict, "duplicate_name"
	case errors.Is(err, port.ErrExternalAuth):
		status, code = fiber.StatusBadGateway, "external_auth"
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		status, code, message = fiber.StatusInternalServerError, "internal", "internal error"
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"code": code, "message": message},
	})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"code": "invalid_argument", "message": message},
	})
}
