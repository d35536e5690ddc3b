// Package apperr defines the sentinel errors services return and the mapping
// from those errors to HTTP responses. Anything not in the taxonomy is treated
// as an internal error: logged server-side, returned to the client as a
// generic message.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
)

// BadRequest wraps ErrValidation with a user-correctable message.
func BadRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return fiber.StatusTooManyRequests
	}
	return fiber.StatusInternalServerError
}

// FiberErrorHandler builds the app-wide error handler. Sentinel errors keep
// their wrapped message; unexpected errors are logged and masked.
func FiberErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		code := status(err)
		if code == fiber.StatusInternalServerError {
			log.Errorw("request failed", "path", c.Path(), "err", err)
			return c.Status(code).JSON(fiber.Map{"error": "internal error"})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
