package constant

const (
	// DefaultLockThreshold is the number of consecutive failed logins
	// after which an account is locked.
	DefaultLockThreshold = 5

	DefaultLockDuration    = "2h"
	DefaultAccessTokenTTL  = "15m"
	DefaultRefreshTokenTTL = "7d"
	DefaultSessionTTL      = "30d"

	// DefaultSessionRetention is how long revoked sessions are kept
	// before the purge loop deletes them.
	DefaultSessionRetention = "24h"
	DefaultPurgeInterval    = "1h"
)
