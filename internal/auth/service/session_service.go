package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/novalane/auth-service/internal/auth/device"
	"github.com/novalane/auth-service/internal/auth/domain"
	"github.com/novalane/auth-service/internal/auth/dto"
	autherror "github.com/novalane/auth-service/internal/errors"
)

// SessionService drives the session lifecycle: issue, validate, refresh with
// rotation, revoke, purge. A session moves Active -> Active with expired
// access token -> terminal; terminal is absorbing.
type SessionService struct {
	sessions   domain.SessionStore
	users      domain.UserStore
	tokens     TokenGenerator
	sessionTTL time.Duration
	logger     zerolog.Logger
}

func NewSessionService(sessions domain.SessionStore, users domain.UserStore, tokens TokenGenerator,
	sessionTTL time.Duration, logger zerolog.Logger) *SessionService {
	return &SessionService{
		sessions:   sessions,
		users:      users,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Issue creates a new active session for the user and returns its token pair.
// The session ceiling is computed from its own TTL, independent of both token
// expiries, so later refreshes can never extend the session past it.
func (s *SessionService) Issue(ctx context.Context, user *domain.User, reqCtx dto.RequestContext) (*dto.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:                    uuid.NewString(),
		UserID:                user.ID,
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
		ExpiresAt:             now.Add(s.sessionTTL),
		IPAddress:             reqCtx.IPAddress,
		UserAgent:             reqCtx.UserAgent,
		Device:                device.Parse(reqCtx.UserAgent),
		Location:              device.Locate(reqCtx.IPAddress),
		IsActive:              true,
		LastActivity:          now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt,
	}, nil
}

// ValidateAccess verifies the token signature, then requires a live session
// at the store level as well; the store re-checks activity and expiry so a
// forcibly revoked session fails even while its token is cryptographically
// valid. On success the session's last activity is bumped.
func (s *SessionService) ValidateAccess(ctx context.Context, accessToken string) (*domain.Session, *domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, autherror.ErrSessionNotFound
	}
	if !session.IsActive {
		return nil, nil, autherror.ErrSessionInactive
	}
	if session.UserID != claims.UserID {
		return nil, nil, autherror.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil, autherror.ErrAccountInactive
	}

	if err := s.sessions.UpdateActivity(ctx, session.ID); err != nil {
		// Activity tracking is advisory; the request proceeds.
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to update session activity")
	}

	return session, user, nil
}

// Refresh rotates the token pair of the session holding refreshToken. The
// store swap is a compare-and-swap on the presented token, so of two
// concurrent calls with the same token exactly one succeeds; the loser gets
// ErrSessionNotFound because its token no longer identifies a session.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, autherror.ErrSessionNotFound
	}
	if session.UserID != claims.UserID {
		return nil, autherror.ErrTokenInvalid
	}

	newAccessToken, accessExpiresAt, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	newRefreshToken, refreshExpiresAt, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	err = s.sessions.RotateTokens(ctx, session.ID, refreshToken, newAccessToken, newRefreshToken,
		accessExpiresAt, refreshExpiresAt)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		SessionID:    session.ID,
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresAt:    accessExpiresAt,
	}, nil
}

// Revoke moves a session to its terminal state. Idempotent: revoking an
// already-terminal session succeeds, so concurrent logouts never race into
// an error.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.sessions.Deactivate(ctx, sessionID)
}

// RevokeAll terminates every active session of the user except exceptID
// (empty revokes all) and returns how many were affected.
func (s *SessionService) RevokeAll(ctx context.Context, userID, exceptID string) (int64, error) {
	return s.sessions.DeactivateAllForUser(ctx, userID, exceptID)
}

// GetActiveSessions lists the user's live sessions, most recently active first.
func (s *SessionService) GetActiveSessions(ctx context.Context, userID string) ([]dto.SessionOutput, error) {
	sessions, err := s.sessions.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.SessionOutput{
			ID:           sess.ID,
			IPAddress:    sess.IPAddress,
			UserAgent:    sess.UserAgent,
			Browser:      sess.Device.Browser,
			OS:           sess.Device.OS,
			Device:       sess.Device.Device,
			Country:      sess.Location.Country,
			City:         sess.Location.City,
			Region:       sess.Location.Region,
			LastActivity: sess.LastActivity,
			CreatedAt:    sess.CreatedAt,
			ExpiresAt:    sess.ExpiresAt,
		})
	}

	return out, nil
}

// PurgeExpired garbage-collects sessions past their ceiling and revoked
// sessions past retention. Deletes are idempotent, so overlapping runs are safe.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("purged expired sessions")
	}
	return deleted, nil
}
