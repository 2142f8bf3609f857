package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/auth"
)

// AuthHandler answers Traefik's ForwardAuth subrequests. In gateway
// mode every request hits Verify before it reaches the API.
type AuthHandler struct {
	verifier  auth.TokenVerifier
	jwtSecret string
}

// NewAuthHandler creates the ForwardAuth endpoint handler.
func NewAuthHandler(verifier auth.TokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		jwtSecret: jwtSecret,
	}
}

// Verify handles GET /auth/verify. A valid token answers 200 with the
// identity headers the gateway copies onto the origin request; anything
// else answers 401 and the request never reaches the API.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	id, err := auth.ResolveToken(token, h.verifier, h.jwtSecret)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set(auth.HeaderUserID, id.UserID)
	c.Set(auth.HeaderEmail, id.Email)
	if id.Name != "" {
		c.Set(auth.HeaderName, id.Name)
	}
	return c.SendStatus(fiber.StatusOK)
}
