package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/novalane/auth-service/internal/auth/domain"
)

const (
	localsSessionKey = "session"
	localsUserKey    = "user"
	localsUserIDKey  = "user_id"
)

// RequireAuth validates the bearer access token and stores the live session
// and user in the request locals for downstream handlers.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		session, user, err := h.sessionService.ValidateAccess(c.UserContext(), token)
		if err != nil {
			return h.errorResponse(c, err)
		}

		c.Locals(localsSessionKey, session)
		c.Locals(localsUserKey, user)
		c.Locals(localsUserIDKey, user.ID)

		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (h *AuthHandler) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := c.Locals(localsUserKey).(*domain.User)
		if user == nil || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
