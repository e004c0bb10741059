package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facturacion/internal/metrics"
)

// CountRequests records every response by method and status. Mount it ahead
// of the access log middleware, which resolves handler errors into statuses.
func CountRequests(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		m.HTTPRequest(c.Method(), c.Response().StatusCode())
		return err
	}
}

// NotFound is the JSON fallback for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
}
