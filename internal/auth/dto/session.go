package dto

import (
	"time"
)

// RequestContext carries per-request client metadata into session issuance.
type RequestContext struct {
	IPAddress string
	UserAgent string
}

type TokenResponse struct {
	SessionID    string    `json:"session_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SessionOutput struct {
	ID           string    `json:"id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	Device       string    `json:"device"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
