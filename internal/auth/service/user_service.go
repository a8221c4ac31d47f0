package service

//go:generate mockgen -destination=../../mocks/mock_user_store.go -package=mocks github.com/novalane/auth-service/internal/auth/domain UserStore
//go:generate mockgen -destination=../../mocks/mock_session_store.go -package=mocks github.com/novalane/auth-service/internal/auth/domain SessionStore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/novalane/auth-service/internal/auth/domain"
	"github.com/novalane/auth-service/internal/auth/dto"
	autherror "github.com/novalane/auth-service/internal/errors"
)

// UserService orchestrates registration and credential login: lockout gate,
// password check, lockout bookkeeping, session issuance.
type UserService struct {
	users    domain.UserStore
	sessions *SessionService
	lockout  *LockoutService
	logger   zerolog.Logger
}

func NewUserService(users domain.UserStore, sessions *SessionService, lockout *LockoutService, logger zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		lockout:  lockout,
		logger:   logger,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hashed),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates credentials and issues a session. Unknown email and
// wrong password both surface as ErrInvalidCredentials so responses cannot
// be used to enumerate accounts.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidCredentials
	}

	if user.IsLocked() {
		return nil, autherror.ErrAccountLocked
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		if err := s.lockout.RecordFailure(ctx, user); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to record login failure")
		}
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}

	return s.sessions.Issue(ctx, user, dto.RequestContext{
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
}
