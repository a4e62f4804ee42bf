// handlers/respond.go
package handlers

import (
	"errors"

	"remote-viewing-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP status codes at the edge. Everything
// unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidWindow):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrActiveConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrWindowClosed),
		errors.Is(err, services.ErrCycleExhausted),
		errors.Is(err, services.ErrTooEarly):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"status":  false,
		"message": err.Error(),
	})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"status": true,
		"data":   data,
	})
}

// userID pulls the identity attached by the gateway middleware.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
