package domain

import (
	"context"
	"time"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error

	// IncrementLoginAttempts atomically bumps the failure counter and returns
	// the post-increment value. If a previous lock has already expired the
	// counter restarts at 1 and the stale lock is cleared, all in the same
	// store operation.
	IncrementLoginAttempts(ctx context.Context, id string) (int, error)

	// LockAccount sets lock_until, but only if the account is not already
	// locked. Locking an already-locked account is a no-op.
	LockAccount(ctx context.Context, id string, until time.Time) error

	// ResetLoginAttempts zeroes the failure counter and clears any lock.
	ResetLoginAttempts(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session *Session) error

	// FindActiveByUser returns active, unexpired sessions ordered by
	// last activity, most recent first.
	FindActiveByUser(ctx context.Context, userID string) ([]Session, error)

	// FindByAccessToken and FindByRefreshToken only match sessions that are
	// active with the relevant token expiry and the session ceiling still in
	// the future. A miss returns (nil, nil).
	FindByAccessToken(ctx context.Context, token string) (*Session, error)
	FindByRefreshToken(ctx context.Context, token string) (*Session, error)

	UpdateActivity(ctx context.Context, id string) error

	// RotateTokens swaps in a new token pair, guarded by a compare-and-swap
	// on the old refresh token: it succeeds only while the stored refresh
	// token still equals oldRefreshToken. A lost race or stale token returns
	// ErrSessionNotFound.
	RotateTokens(ctx context.Context, id, oldRefreshToken, newAccessToken, newRefreshToken string,
		accessExpiresAt, refreshExpiresAt time.Time) error

	// Deactivate is idempotent; deactivating a terminal session succeeds.
	Deactivate(ctx context.Context, id string) error

	// DeactivateAllForUser deactivates every active session of the user
	// except exceptID (empty means no exception) and returns the count.
	DeactivateAllForUser(ctx context.Context, userID, exceptID string) (int64, error)

	// DeleteExpired removes sessions past their ceiling and revoked sessions
	// past retention. Safe to run concurrently and repeatedly.
	DeleteExpired(ctx context.Context) (int64, error)
}
