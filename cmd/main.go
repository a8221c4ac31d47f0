package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/novalane/auth-service/config"
	"github.com/novalane/auth-service/db"
	"github.com/novalane/auth-service/internal/auth/handler"
	"github.com/novalane/auth-service/internal/auth/ratelimit"
	repo "github.com/novalane/auth-service/internal/auth/repository/postgres"
	"github.com/novalane/auth-service/internal/auth/service"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	userRepo := repo.NewUserRepository(dbPool)
	sessionRepo := repo.NewSessionRepository(dbPool, cfg.SessionRetention)

	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessionService := service.NewSessionService(sessionRepo, userRepo, tokenService, cfg.SessionTTL, logger)
	lockoutService := service.NewLockoutService(userRepo, cfg.LockThreshold, cfg.LockDuration, logger)
	userService := service.NewUserService(userRepo, sessionService, lockoutService, logger)

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.Disabled = cfg.RateLimitDisabled
	limiter := ratelimit.New(redisClient, limiterConfig, logger)

	authHandler := handler.NewAuthHandler(userService, sessionService, logger)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, limiter)

	go runSessionGC(ctx, sessionService, cfg.PurgeInterval, logger)

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// runSessionGC periodically deletes sessions past their ceiling and revoked
// sessions past retention.
func runSessionGC(ctx context.Context, sessions *service.SessionService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.PurgeExpired(ctx); err != nil {
				logger.Error().Err(err).Msg("session purge failed")
			}
		}
	}
}
