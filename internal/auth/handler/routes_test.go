package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novalane/auth-service/internal/auth/handler"
	"github.com/novalane/auth-service/internal/auth/ratelimit"
	"github.com/novalane/auth-service/internal/auth/service"
	"github.com/novalane/auth-service/internal/mocks"
)

func newTestApp(t *testing.T, limiter *ratelimit.Limiter) *fiber.App {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockUsers := mocks.NewMockUserStore(ctrl)
	mockSessions := mocks.NewMockSessionStore(ctrl)

	tokens := service.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	sessionService := service.NewSessionService(mockSessions, mockUsers, tokens, 30*24*time.Hour, zerolog.Nop())
	lockoutService := service.NewLockoutService(mockUsers, 5, 2*time.Hour, zerolog.Nop())
	userService := service.NewUserService(mockUsers, sessionService, lockoutService, zerolog.Nop())

	h := handler.NewAuthHandler(userService, sessionService, zerolog.Nop())

	app := fiber.New()
	handler.RegisterRoutes(app, h, limiter)
	return app
}

func disabledLimiter() *ratelimit.Limiter {
	return ratelimit.New(nil, ratelimit.Config{Disabled: true}, zerolog.Nop())
}

func redisLimiter(t *testing.T, cfg ratelimit.Config) *ratelimit.Limiter {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return ratelimit.New(rdb, cfg, zerolog.Nop())
}

func TestRegisterRoutes(t *testing.T) {
	app := newTestApp(t, disabledLimiter())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/register"},
		{http.MethodPost, "/api/v1/login"},
		{http.MethodPost, "/api/v1/refresh"},
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodDelete, "/api/v1/sessions"},
		{http.MethodGet, "/api/v1/sessions"},
		{http.MethodDelete, "/api/v1/admin/user/user-1/sessions"},
		{http.MethodGet, "/api/v1/admin/user/user-1/sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.NotEqual(t, fiber.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestRegisterRoutes_ProtectedRequireAuth(t *testing.T) {
	app := newTestApp(t, disabledLimiter())

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodDelete, "/api/v1/sessions"},
		{http.MethodGet, "/api/v1/sessions"},
		{http.MethodDelete, "/api/v1/admin/user/user-1/sessions"},
		{http.MethodGet, "/api/v1/admin/user/user-1/sessions"},
	}

	for _, tt := range protected {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// The auth budget must gate only register/login/refresh. With an auth rule of
// one request per window, traffic on other routes must never see a 429 from
// the auth class, and exhausting the auth budget must not bleed into them.
func TestRegisterRoutes_AuthClassGatesOnlyAuthRoutes(t *testing.T) {
	cfg := ratelimit.Config{
		Rules: map[ratelimit.Class]ratelimit.Rule{
			ratelimit.ClassAuth:     {Window: time.Minute, Max: 1},
			ratelimit.ClassGeneral:  {Window: time.Minute, Max: 100},
			ratelimit.ClassReadOnly: {Window: time.Minute, Max: 100},
			ratelimit.ClassAdmin:    {Window: time.Minute, Max: 100},
		},
	}
	app := newTestApp(t, redisLimiter(t, cfg))

	send := func(method, path string) int {
		resp, err := app.Test(httptest.NewRequest(method, path, nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	// Repeated reads on a non-auth route stay off the auth budget.
	assert.Equal(t, fiber.StatusUnauthorized, send(http.MethodGet, "/api/v1/sessions"))
	assert.Equal(t, fiber.StatusUnauthorized, send(http.MethodGet, "/api/v1/sessions"))

	// The auth routes share one budget: the first request consumes it, the
	// second is throttled before the handler runs.
	assert.NotEqual(t, fiber.StatusTooManyRequests, send(http.MethodPost, "/api/v1/login"))
	assert.Equal(t, fiber.StatusTooManyRequests, send(http.MethodPost, "/api/v1/refresh"))

	// An exhausted auth budget still leaves the other classes untouched.
	assert.Equal(t, fiber.StatusUnauthorized, send(http.MethodGet, "/api/v1/sessions"))
	assert.Equal(t, fiber.StatusUnauthorized, send(http.MethodDelete, "/api/v1/session"))
}
