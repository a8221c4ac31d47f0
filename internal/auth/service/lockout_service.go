package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/novalane/auth-service/internal/auth/domain"
)

// LockoutService keeps the failed-login bookkeeping on the user record.
// Counting is delegated to a single atomic store operation so two concurrent
// failures can never both observe a pre-threshold count. The lock itself is
// just a timestamp; expiry is derived, never explicitly cleared.
type LockoutService struct {
	users        domain.UserStore
	threshold    int
	lockDuration time.Duration
	logger       zerolog.Logger
}

func NewLockoutService(users domain.UserStore, threshold int, lockDuration time.Duration, logger zerolog.Logger) *LockoutService {
	return &LockoutService{
		users:        users,
		threshold:    threshold,
		lockDuration: lockDuration,
		logger:       logger,
	}
}

// RecordFailure registers one failed login attempt. When the post-increment
// count reaches the threshold and the account is not already locked, the
// account is locked for the configured duration.
func (s *LockoutService) RecordFailure(ctx context.Context, user *domain.User) error {
	attempts, err := s.users.IncrementLoginAttempts(ctx, user.ID)
	if err != nil {
		return err
	}

	if attempts < s.threshold || user.IsLocked() {
		return nil
	}

	until := time.Now().Add(s.lockDuration)
	if err := s.users.LockAccount(ctx, user.ID, until); err != nil {
		return err
	}

	s.logger.Warn().
		Str("user_id", user.ID).
		Int("attempts", attempts).
		Time("lock_until", until).
		Msg("account locked after repeated failed logins")

	return nil
}

// RecordSuccess unconditionally resets the failure counter and clears any lock.
func (s *LockoutService) RecordSuccess(ctx context.Context, user *domain.User) error {
	return s.users.ResetLoginAttempts(ctx, user.ID)
}

// IsLocked reports whether the user is locked right now.
func (s *LockoutService) IsLocked(user *domain.User) bool {
	return user.IsLocked()
}
