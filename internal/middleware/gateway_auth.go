package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/pkg/response"
)

// GatewayAuthMiddleware trusts the X-User-* identity headers injected
// by the edge proxy's ForwardAuth. The user id keys the per-user rate
// limits on ingest/advance/report, so a request without it is
// rejected outright.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get("X-User-Email"))

		return c.Next()
	}
}
