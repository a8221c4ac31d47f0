package errors

import (
	"errors"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountLocked         = errors.New("account temporarily locked")
	ErrAccountInactive       = errors.New("account inactive")
	ErrEmailAlreadyInUse     = errors.New("email already in use")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrAccessTokenExpired    = errors.New("access token expired")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrTokenInvalid          = errors.New("invalid token")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionInactive       = errors.New("session inactive")
	ErrInvalidDurationFormat = errors.New("invalid duration format")
	ErrRateLimited           = errors.New("too many requests")
)
