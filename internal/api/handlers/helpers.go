package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Operator returns the caller identified by the auth middleware.
func Operator(c *fiber.Ctx) string {
	operator, _ := c.Locals("operator").(string)
	return operator
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
