package domain

import "time"

// DeviceInfo is best-effort metadata parsed from the User-Agent header.
type DeviceInfo struct {
	Browser string
	OS      string
	Device  string
}

// Location is best-effort metadata derived from the client IP. Advisory only.
type Location struct {
	Country string
	City    string
	Region  string
}

// Session correlates a user with its current token pair and activity metadata.
// ExpiresAt is an absolute ceiling independent of either token expiry: a
// still-valid refresh token can never push a session past it. IsActive is
// terminal once false.
type Session struct {
	ID                    string
	UserID                string
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	ExpiresAt             time.Time
	IPAddress             string
	UserAgent             string
	Device                DeviceInfo
	Location              Location
	IsActive              bool
	LastActivity          time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
