package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Class identifies a group of endpoints sharing one rate budget.
type Class string

const (
	ClassGeneral       Class = "general"
	ClassAuth          Class = "auth"
	ClassPasswordReset Class = "password-reset"
	ClassAvatarUpload  Class = "avatar-upload"
	ClassProfileUpdate Class = "profile-update"
	ClassReadOnly      Class = "read-only"
	ClassAdmin         Class = "admin"
)

// Rule is a fixed window: at most Max requests per Window per key.
type Rule struct {
	Window time.Duration
	Max    int
}

// Config holds the per-class rules. Disabled is an explicit injected policy
// flag (tests, local runs); the limiter never sniffs environment names.
type Config struct {
	Disabled bool
	Rules    map[Class]Rule
}

// DefaultConfig returns the per-class budgets used in production.
func DefaultConfig() Config {
	return Config{
		Rules: map[Class]Rule{
			ClassGeneral:       {Window: 15 * time.Minute, Max: 100},
			ClassAuth:          {Window: 15 * time.Minute, Max: 10},
			ClassPasswordReset: {Window: time.Hour, Max: 3},
			ClassAvatarUpload:  {Window: 15 * time.Minute, Max: 10},
			ClassProfileUpdate: {Window: 15 * time.Minute, Max: 20},
			ClassReadOnly:      {Window: time.Minute, Max: 60},
			ClassAdmin:         {Window: 15 * time.Minute, Max: 50},
		},
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter gates requests per endpoint class with Redis-backed fixed-window
// counters. Counters are defense-in-depth: when Redis is unreachable the
// limiter fails open rather than taking auth down with it.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
	logger zerolog.Logger
}

func New(redisClient redis.UniversalClient, cfg Config, logger zerolog.Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
		logger: logger,
	}
}

// Allow records one request for class+key and decides admission. The window
// resets deterministically when the counter key expires; there is no sliding
// computation.
func (l *Limiter) Allow(ctx context.Context, class Class, key string) Decision {
	if l.config.Disabled {
		return Decision{Allowed: true}
	}

	rule, ok := l.config.Rules[class]
	if !ok {
		rule = l.config.Rules[ClassGeneral]
	}
	if rule.Max <= 0 {
		return Decision{Allowed: true}
	}

	counterKey := counterKey(class, key)

	count, err := l.redis.Incr(ctx, counterKey).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("class", string(class)).Msg("rate limit backend unavailable, failing open")
		return Decision{Allowed: true}
	}

	// Fixed-window semantics: the TTL is set only by the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, counterKey, rule.Window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("class", string(class)).Msg("rate limit backend unavailable, failing open")
			return Decision{Allowed: true}
		}
	}

	if count > int64(rule.Max) {
		return Decision{Allowed: false, RetryAfter: rule.Window}
	}

	return Decision{Allowed: true}
}

func counterKey(class Class, key string) string {
	return fmt.Sprintf("rl:%s:%s", class, key)
}
