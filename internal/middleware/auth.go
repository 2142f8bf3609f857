package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/auth"
	"github.com/styledna/api/pkg/response"
)

// AuthMiddleware verifies bearer tokens for deployments where the app
// is exposed directly. Behind the gateway, GatewayAuthMiddleware reads
// the ForwardAuth headers instead and this type is not mounted.
type AuthMiddleware struct {
	verifier  auth.TokenVerifier
	jwtSecret string
}

// NewAuthMiddleware verifies tokens against the OIDC provider only.
func NewAuthMiddleware(verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// NewAuthMiddlewareWithFallback verifies against the OIDC provider
// first and retries with the legacy HMAC secret. Covers the window
// where already-issued legacy tokens are still in the wild.
func NewAuthMiddlewareWithFallback(verifier auth.TokenVerifier, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, jwtSecret: jwtSecret}
}

// NewLegacyAuthMiddleware verifies HMAC tokens only. Local development
// and the test suite run this way.
func NewLegacyAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Authenticate returns the handler guarding the /api group. On success
// the caller's identity lands in the userId and email locals.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		id, err := auth.ResolveToken(token, m.verifier, m.jwtSecret)
		if errors.Is(err, auth.ErrNotConfigured) {
			return response.Unauthorized(c, "Authentication not configured")
		}
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", id.UserID)
		c.Locals("email", id.Email)
		return c.Next()
	}
}

// GetUserID returns the authenticated user ID, or "" outside the
// authenticated route group.
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}
