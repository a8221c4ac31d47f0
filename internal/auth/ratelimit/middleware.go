package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	autherror "github.com/novalane/auth-service/internal/errors"
)

// Middleware gates every request in the route group through the limiter
// before the handler runs. The counter key is the client IP; the admin class
// additionally keys by the authenticated user when one is present, so a
// shared office IP cannot exhaust another admin's budget.
func Middleware(l *Limiter, class Class) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if class == ClassAdmin {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				key = key + ":" + userID
			}
		}

		decision := l.Allow(c.UserContext(), class, key)
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			l.logger.Warn().
				Str("ip", c.IP()).
				Str("route", c.Path()).
				Str("method", c.Method()).
				Str("class", string(class)).
				Msg("request rate limited")

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":               autherror.ErrRateLimited.Error(),
				"retry_after_seconds": retryAfter,
			})
		}

		return c.Next()
	}
}
