package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novalane/auth-service/internal/auth/domain"
	"github.com/novalane/auth-service/internal/auth/dto"
	"github.com/novalane/auth-service/internal/auth/service"
	autherror "github.com/novalane/auth-service/internal/errors"
	"github.com/novalane/auth-service/internal/mocks"
)

const sessionTTL = 30 * 24 * time.Hour

func newSessionService(t *testing.T) (*service.SessionService, *mocks.MockSessionStore, *mocks.MockUserStore, *mocks.MockTokenGenerator) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockSessions := mocks.NewMockSessionStore(ctrl)
	mockUsers := mocks.NewMockUserStore(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	s := service.NewSessionService(mockSessions, mockUsers, mockTokens, sessionTTL, zerolog.Nop())
	return s, mockSessions, mockUsers, mockTokens
}

func TestSessionService_Issue(t *testing.T) {
	s, mockSessions, _, mockTokens := newSessionService(t)
	ctx := context.Background()

	user := &domain.User{ID: "user-123", Email: "test@example.com", IsActive: true}
	accessExpiry := time.Now().Add(15 * time.Minute)
	refreshExpiry := time.Now().Add(7 * 24 * time.Hour)

	mockTokens.EXPECT().GenerateAccessToken(user.ID, user.Email).Return("access-token", accessExpiry, nil)
	mockTokens.EXPECT().GenerateRefreshToken(user.ID, user.Email).Return("refresh-token", refreshExpiry, nil)

	var created *domain.Session
	mockSessions.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sess *domain.Session) error {
			created = sess
			return nil
		})

	resp, err := s.Issue(ctx, user, dto.RequestContext{
		IPAddress: "127.0.0.1",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	})
	require.NoError(t, err)

	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)

	require.NotNil(t, created)
	assert.Equal(t, resp.SessionID, created.ID)
	assert.Equal(t, user.ID, created.UserID)
	assert.True(t, created.IsActive)
	assert.Equal(t, accessExpiry, created.AccessTokenExpiresAt)
	assert.Equal(t, refreshExpiry, created.RefreshTokenExpiresAt)

	// The ceiling comes from its own TTL and bounds both token expiries.
	assert.WithinDuration(t, time.Now().Add(sessionTTL), created.ExpiresAt, time.Second)
	assert.True(t, created.ExpiresAt.After(created.AccessTokenExpiresAt))
	assert.True(t, created.ExpiresAt.After(created.RefreshTokenExpiresAt))

	// Best-effort enrichment from UA and IP.
	assert.Equal(t, "Safari", created.Device.Browser)
	assert.Equal(t, "Local", created.Location.Country)
}

func TestSessionService_ValidateAccess(t *testing.T) {
	ctx := context.Background()
	claims := &service.JWTCustomClaims{UserID: "user-123", Email: "test@example.com"}
	session := &domain.Session{ID: "sess-1", UserID: "user-123", IsActive: true}
	user := &domain.User{ID: "user-123", IsActive: true}

	t.Run("success updates activity", func(t *testing.T) {
		s, mockSessions, mockUsers, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyAccessToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByAccessToken(gomock.Any(), "token").Return(session, nil)
		mockUsers.EXPECT().GetByID(gomock.Any(), "user-123").Return(user, nil)
		mockSessions.EXPECT().UpdateActivity(gomock.Any(), "sess-1").Return(nil)

		gotSession, gotUser, err := s.ValidateAccess(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, session, gotSession)
		assert.Equal(t, user, gotUser)
	})

	t.Run("bad token fails fast without store lookup", func(t *testing.T) {
		s, _, _, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyAccessToken("bad").Return(nil, autherror.ErrTokenInvalid)

		_, _, err := s.ValidateAccess(ctx, "bad")
		assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
	})

	t.Run("missing session", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyAccessToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByAccessToken(gomock.Any(), "token").Return(nil, nil)

		_, _, err := s.ValidateAccess(ctx, "token")
		assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		other := &domain.Session{ID: "sess-1", UserID: "someone-else", IsActive: true}
		mockTokens.EXPECT().VerifyAccessToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByAccessToken(gomock.Any(), "token").Return(other, nil)

		_, _, err := s.ValidateAccess(ctx, "token")
		assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
	})

	t.Run("inactive user", func(t *testing.T) {
		s, mockSessions, mockUsers, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyAccessToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByAccessToken(gomock.Any(), "token").Return(session, nil)
		mockUsers.EXPECT().GetByID(gomock.Any(), "user-123").Return(&domain.User{ID: "user-123", IsActive: false}, nil)

		_, _, err := s.ValidateAccess(ctx, "token")
		assert.ErrorIs(t, err, autherror.ErrAccountInactive)
	})

	t.Run("activity update failure is not fatal", func(t *testing.T) {
		s, mockSessions, mockUsers, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyAccessToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByAccessToken(gomock.Any(), "token").Return(session, nil)
		mockUsers.EXPECT().GetByID(gomock.Any(), "user-123").Return(user, nil)
		mockSessions.EXPECT().UpdateActivity(gomock.Any(), "sess-1").Return(assert.AnError)

		_, _, err := s.ValidateAccess(ctx, "token")
		assert.NoError(t, err)
	})
}

func TestSessionService_Refresh(t *testing.T) {
	ctx := context.Background()
	claims := &service.JWTCustomClaims{UserID: "user-123", Email: "test@example.com"}
	session := &domain.Session{ID: "sess-1", UserID: "user-123", IsActive: true}

	t.Run("success rotates through CAS", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		accessExpiry := time.Now().Add(15 * time.Minute)
		refreshExpiry := time.Now().Add(7 * 24 * time.Hour)

		mockTokens.EXPECT().VerifyRefreshToken("old-refresh").Return(claims, nil)
		mockSessions.EXPECT().FindByRefreshToken(gomock.Any(), "old-refresh").Return(session, nil)
		mockTokens.EXPECT().GenerateAccessToken("user-123", "test@example.com").Return("new-access", accessExpiry, nil)
		mockTokens.EXPECT().GenerateRefreshToken("user-123", "test@example.com").Return("new-refresh", refreshExpiry, nil)
		mockSessions.EXPECT().
			RotateTokens(gomock.Any(), "sess-1", "old-refresh", "new-access", "new-refresh", accessExpiry, refreshExpiry).
			Return(nil)

		resp, err := s.Refresh(ctx, "old-refresh")
		require.NoError(t, err)
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Equal(t, "new-refresh", resp.RefreshToken)
		assert.Equal(t, "sess-1", resp.SessionID)
	})

	t.Run("lost CAS surfaces as session not found", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyRefreshToken("old-refresh").Return(claims, nil)
		mockSessions.EXPECT().FindByRefreshToken(gomock.Any(), "old-refresh").Return(session, nil)
		mockTokens.EXPECT().GenerateAccessToken(gomock.Any(), gomock.Any()).Return("new-access", time.Now(), nil)
		mockTokens.EXPECT().GenerateRefreshToken(gomock.Any(), gomock.Any()).Return("new-refresh", time.Now(), nil)
		mockSessions.EXPECT().
			RotateTokens(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(autherror.ErrSessionNotFound)

		_, err := s.Refresh(ctx, "old-refresh")
		assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
	})

	t.Run("superseded token misses lookup", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyRefreshToken("rotated-away").Return(claims, nil)
		mockSessions.EXPECT().FindByRefreshToken(gomock.Any(), "rotated-away").Return(nil, nil)

		_, err := s.Refresh(ctx, "rotated-away")
		assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		s, mockSessions, _, mockTokens := newSessionService(t)

		other := &domain.Session{ID: "sess-1", UserID: "someone-else", IsActive: true}
		mockTokens.EXPECT().VerifyRefreshToken("token").Return(claims, nil)
		mockSessions.EXPECT().FindByRefreshToken(gomock.Any(), "token").Return(other, nil)

		_, err := s.Refresh(ctx, "token")
		assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
	})

	t.Run("expired refresh token fails fast", func(t *testing.T) {
		s, _, _, mockTokens := newSessionService(t)

		mockTokens.EXPECT().VerifyRefreshToken("expired").Return(nil, autherror.ErrRefreshTokenExpired)

		_, err := s.Refresh(ctx, "expired")
		assert.ErrorIs(t, err, autherror.ErrRefreshTokenExpired)
	})
}

// An expired access token only blocks validation; the session's refresh
// token still rotates normally. Uses the real codec with an already-elapsed
// access TTL.
func TestSessionService_ExpiredAccessStillRefreshable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionStore(ctrl)
	mockUsers := mocks.NewMockUserStore(ctrl)
	tokens := service.NewTokenService("access-secret", "refresh-secret", -time.Second, time.Hour)

	s := service.NewSessionService(mockSessions, mockUsers, tokens, sessionTTL, zerolog.Nop())
	ctx := context.Background()

	accessToken, _, err := tokens.GenerateAccessToken("user-123", "test@example.com")
	require.NoError(t, err)
	refreshToken, _, err := tokens.GenerateRefreshToken("user-123", "test@example.com")
	require.NoError(t, err)

	_, _, err = s.ValidateAccess(ctx, accessToken)
	assert.ErrorIs(t, err, autherror.ErrAccessTokenExpired)

	session := &domain.Session{ID: "sess-1", UserID: "user-123", IsActive: true}
	mockSessions.EXPECT().FindByRefreshToken(gomock.Any(), refreshToken).Return(session, nil)
	mockSessions.EXPECT().
		RotateTokens(gomock.Any(), "sess-1", refreshToken, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	resp, err := s.Refresh(ctx, refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, refreshToken, resp.RefreshToken)
}

func TestSessionService_RevokeIsIdempotent(t *testing.T) {
	s, mockSessions, _, _ := newSessionService(t)
	ctx := context.Background()

	// The store treats deactivating a terminal session as success; revoking
	// twice therefore succeeds twice.
	mockSessions.EXPECT().Deactivate(gomock.Any(), "sess-1").Return(nil).Times(2)

	assert.NoError(t, s.Revoke(ctx, "sess-1"))
	assert.NoError(t, s.Revoke(ctx, "sess-1"))
}

func TestSessionService_RevokeAll(t *testing.T) {
	s, mockSessions, _, _ := newSessionService(t)
	ctx := context.Background()

	mockSessions.EXPECT().DeactivateAllForUser(gomock.Any(), "user-123", "keep-me").Return(int64(3), nil)

	count, err := s.RevokeAll(ctx, "user-123", "keep-me")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSessionService_GetActiveSessions(t *testing.T) {
	s, mockSessions, _, _ := newSessionService(t)
	ctx := context.Background()

	now := time.Now()
	stored := []domain.Session{
		{
			ID:           "sess-b",
			UserID:       "user-123",
			IPAddress:    "203.0.113.7",
			Device:       domain.DeviceInfo{Browser: "Firefox", OS: "Linux", Device: "Desktop"},
			LastActivity: now,
		},
		{
			ID:           "sess-a",
			UserID:       "user-123",
			LastActivity: now.Add(-time.Hour),
		},
	}
	mockSessions.EXPECT().FindActiveByUser(gomock.Any(), "user-123").Return(stored, nil)

	out, err := s.GetActiveSessions(ctx, "user-123")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "sess-b", out[0].ID)
	assert.Equal(t, "Firefox", out[0].Browser)
	assert.Equal(t, "sess-a", out[1].ID)
}

func TestSessionService_PurgeExpired(t *testing.T) {
	s, mockSessions, _, _ := newSessionService(t)
	ctx := context.Background()

	mockSessions.EXPECT().DeleteExpired(gomock.Any()).Return(int64(5), nil)

	deleted, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
}
