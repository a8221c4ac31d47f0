package domain

import "time"

type User struct {
	ID            string
	Email         string
	PasswordHash  string
	LoginAttempts int
	LockUntil     *time.Time
	IsActive      bool
	IsAdmin       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLockedAt reports whether the account is locked at the given instant.
// The lock self-heals: once LockUntil passes the account is usable again
// without any explicit unlock.
func (u *User) IsLockedAt(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// IsLocked reports whether the account is currently locked.
func (u *User) IsLocked() bool {
	return u.IsLockedAt(time.Now())
}
