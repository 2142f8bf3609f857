package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/auth"
	"github.com/styledna/api/pkg/response"
)

// GatewayAuthMiddleware trusts the identity headers stamped upstream by
// Traefik's ForwardAuth pass against /auth/verify. Mounted only in
// gateway mode, where the app is not reachable directly.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(auth.HeaderUserID)
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get(auth.HeaderEmail))
		return c.Next()
	}
}
