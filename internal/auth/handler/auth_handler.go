package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/novalane/auth-service/internal/auth/domain"
	"github.com/novalane/auth-service/internal/auth/dto"
	"github.com/novalane/auth-service/internal/auth/service"
	autherror "github.com/novalane/auth-service/internal/errors"
)

type AuthHandler struct {
	userService    *service.UserService
	sessionService *service.SessionService
	logger         zerolog.Logger
}

func NewAuthHandler(userService *service.UserService, sessionService *service.SessionService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		logger:         logger,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}
	if err := input.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	// Capture client metadata for session enrichment
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	tokens, err := h.sessionService.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout revokes the session carried by the presented access token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session := sessionFromLocals(c)
	if session == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := h.sessionService.Revoke(c.UserContext(), session.ID); err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

// LogoutEverywhere revokes every other session of the authenticated user,
// keeping the current one alive.
func (h *AuthHandler) LogoutEverywhere(c *fiber.Ctx) error {
	session := sessionFromLocals(c)
	if session == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	count, err := h.sessionService.RevokeAll(c.UserContext(), session.UserID, session.ID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"revoked": count})
}

// GetSessions lists the authenticated user's active sessions.
func (h *AuthHandler) GetSessions(c *fiber.Ctx) error {
	session := sessionFromLocals(c)
	if session == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	sessions, err := h.sessionService.GetActiveSessions(c.UserContext(), session.UserID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessions": sessions})
}

// ForceLogout revokes every session of the given user. Admin only.
func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	userID := c.Params("id")

	count, err := h.sessionService.RevokeAll(c.UserContext(), userID, "")
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"revoked": count})
}

// GetUserSessions lists any user's active sessions. Admin only.
func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	userID := c.Params("id")

	sessions, err := h.sessionService.GetActiveSessions(c.UserContext(), userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessions": sessions})
}

// errorResponse maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is a 500 with no internal detail leaked.
func (h *AuthHandler) errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrAccessTokenExpired),
		errors.Is(err, autherror.ErrRefreshTokenExpired),
		errors.Is(err, autherror.ErrTokenInvalid),
		errors.Is(err, autherror.ErrSessionNotFound),
		errors.Is(err, autherror.ErrSessionInactive):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrAccountLocked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrAccountInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("route", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func sessionFromLocals(c *fiber.Ctx) *domain.Session {
	session, _ := c.Locals(localsSessionKey).(*domain.Session)
	return session
}
