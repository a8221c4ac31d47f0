package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/novalane/auth-service/internal/auth/ratelimit"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, limiter *ratelimit.Limiter) {
	api := app.Group("/api/v1", ratelimit.Middleware(limiter, ratelimit.ClassGeneral))

	// The auth budget is attached per route: grouping with an empty prefix
	// would register the middleware at /api/v1 and throttle everything.
	authLimit := ratelimit.Middleware(limiter, ratelimit.ClassAuth)
	api.Post("/register", authLimit, h.Register)
	api.Post("/login", authLimit, h.Login)
	api.Post("/refresh", authLimit, h.Refresh)

	api.Delete("/session", h.RequireAuth(), h.Logout)
	api.Delete("/sessions", h.RequireAuth(), h.LogoutEverywhere)
	api.Get("/sessions", ratelimit.Middleware(limiter, ratelimit.ClassReadOnly), h.RequireAuth(), h.GetSessions)

	// Admin-only endpoints
	admin := api.Group("/admin", h.RequireAuth(), ratelimit.Middleware(limiter, ratelimit.ClassAdmin), h.RequireAdmin())
	admin.Delete("/user/:id/sessions", h.ForceLogout)
	admin.Get("/user/:id/sessions", h.GetUserSessions)
}
