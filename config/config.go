package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/novalane/auth-service/internal/auth/service"
	"github.com/novalane/auth-service/pkg/constant"
)

type Config struct {
	Env       string
	Port      string
	DBURL     string
	RedisAddr string

	AccessTokenSecret  string
	RefreshTokenSecret string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionTTL      time.Duration

	LockThreshold int
	LockDuration  time.Duration

	SessionRetention time.Duration
	PurgeInterval    time.Duration

	RateLimitDisabled bool
}

// Load reads configuration from the environment. Duration values use the
// compact "<int><unit>" grammar (s/m/h/d) and are validated here, once, so a
// malformed TTL is a startup failure rather than a per-request surprise.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		DBURL:              os.Getenv("DB_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RateLimitDisabled:  getEnvAsBool("RATE_LIMIT_DISABLED", false),
	}

	if cfg.DBURL == "" {
		return nil, fmt.Errorf("missing required environment variable: DB_URL")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("missing required environment variables: ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET")
	}

	var err error
	if cfg.AccessTokenTTL, err = getEnvAsDuration("ACCESS_TOKEN_TTL", constant.DefaultAccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getEnvAsDuration("REFRESH_TOKEN_TTL", constant.DefaultRefreshTokenTTL); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvAsDuration("SESSION_TTL", constant.DefaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.LockDuration, err = getEnvAsDuration("LOCK_DURATION", constant.DefaultLockDuration); err != nil {
		return nil, err
	}
	if cfg.SessionRetention, err = getEnvAsDuration("SESSION_RETENTION", constant.DefaultSessionRetention); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = getEnvAsDuration("PURGE_INTERVAL", constant.DefaultPurgeInterval); err != nil {
		return nil, err
	}

	cfg.LockThreshold = getEnvAsInt("LOCK_THRESHOLD", constant.DefaultLockThreshold)

	// The ceiling must be able to outlive both tokens, otherwise a valid
	// refresh token could belong to an already-collectable session.
	if cfg.SessionTTL < cfg.RefreshTokenTTL || cfg.SessionTTL < cfg.AccessTokenTTL {
		return nil, fmt.Errorf("SESSION_TTL must be at least as long as both token TTLs")
	}

	return cfg, nil
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsDuration(key string, defaultVal string) (time.Duration, error) {
	valStr := getEnv(key, defaultVal)
	d, err := service.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %q: %w", key, valStr, err)
	}
	return d, nil
}
