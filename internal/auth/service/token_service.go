package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/novalane/auth-service/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/novalane/auth-service/internal/errors"
)

type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, time.Time, error)
	GenerateRefreshToken(userID, email string) (string, time.Time, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
}

// TokenService signs and verifies the access/refresh token pair. The two
// token kinds use distinct secrets so one can never be presented where the
// other is required.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (ts *TokenService) GenerateAccessToken(userID, email string) (string, time.Time, error) {
	return ts.generate(userID, email, ts.accessSecret, ts.accessTTL)
}

func (ts *TokenService) GenerateRefreshToken(userID, email string) (string, time.Time, error) {
	return ts.generate(userID, email, ts.refreshSecret, ts.refreshTTL)
}

func (ts *TokenService) generate(userID, email string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken validates signature and expiry of an access token.
// An expired-but-otherwise-valid token fails with ErrAccessTokenExpired so
// the caller can distinguish "retry via refresh" from "force re-login".
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.accessSecret, autherror.ErrAccessTokenExpired)
}

// VerifyRefreshToken validates signature and expiry of a refresh token.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.refreshSecret, autherror.ErrRefreshTokenExpired)
}

func (ts *TokenService) verify(tokenString string, secret []byte, expiredErr error) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, expiredErr
		}
		return nil, autherror.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, autherror.ErrTokenInvalid
	}

	return claims, nil
}

// ParseDuration parses a compact duration spec of the form "<integer><unit>"
// where unit is one of s, m, h or d. Unlike time.ParseDuration it supports
// days and rejects everything outside that grammar with
// ErrInvalidDurationFormat.
func ParseDuration(spec string) (time.Duration, error) {
	if len(spec) < 2 {
		return 0, autherror.ErrInvalidDurationFormat
	}

	unit := spec[len(spec)-1]
	value, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || value < 0 {
		return 0, autherror.ErrInvalidDurationFormat
	}

	switch unit {
	case 's':
		return time.Duration(value) * time.Second, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, autherror.ErrInvalidDurationFormat
	}
}

// GenerateOpaqueSecret returns a cryptographically random URL-safe string
// with at least 160 bits of entropy, for auxiliary identifiers.
func GenerateOpaqueSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
