package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/novalane/auth-service/internal/auth/domain"
	autherror "github.com/novalane/auth-service/internal/errors"
)

type SessionRepository struct {
	db DB

	// inactiveRetention is how long revoked sessions survive before
	// DeleteExpired removes them.
	inactiveRetention time.Duration
}

func NewSessionRepository(db DB, inactiveRetention time.Duration) *SessionRepository {
	return &SessionRepository{db: db, inactiveRetention: inactiveRetention}
}

const sessionColumns = `id, user_id, access_token, refresh_token,
		access_token_expires_at, refresh_token_expires_at, expires_at,
		ip_address, user_agent, browser, os, device, country, city, region,
		is_active, last_activity, created_at, updated_at`

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.AccessToken, s.RefreshToken,
		s.AccessTokenExpiresAt, s.RefreshTokenExpiresAt, s.ExpiresAt,
		s.IPAddress, s.UserAgent, s.Device.Browser, s.Device.OS, s.Device.Device,
		s.Location.Country, s.Location.City, s.Location.Region,
		s.IsActive, s.LastActivity, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND is_active AND expires_at > now()
		ORDER BY last_activity DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

// FindByAccessToken returns a live session for the token, or (nil, nil). The
// activity and expiry predicates live in the query on purpose: a revoked or
// force-expired session must miss even if the token itself still verifies.
func (r *SessionRepository) FindByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE access_token = $1 AND is_active
			AND access_token_expires_at > now() AND expires_at > now()
		LIMIT 1;
	`
	return r.findOne(ctx, query, token)
}

func (r *SessionRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token = $1 AND is_active
			AND refresh_token_expires_at > now() AND expires_at > now()
		LIMIT 1;
	`
	return r.findOne(ctx, query, token)
}

func (r *SessionRepository) findOne(ctx context.Context, query, token string) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return s, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken,
		&s.AccessTokenExpiresAt, &s.RefreshTokenExpiresAt, &s.ExpiresAt,
		&s.IPAddress, &s.UserAgent, &s.Device.Browser, &s.Device.OS, &s.Device.Device,
		&s.Location.Country, &s.Location.City, &s.Location.Region,
		&s.IsActive, &s.LastActivity, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) UpdateActivity(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET last_activity = now(), updated_at = now()
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// RotateTokens is the compare-and-swap at the heart of refresh rotation: the
// update only matches while the stored refresh token still equals the one the
// caller presented. Zero rows means another rotation won the race (or the
// token is stale) and the caller gets ErrSessionNotFound.
func (r *SessionRepository) RotateTokens(ctx context.Context, id, oldRefreshToken, newAccessToken, newRefreshToken string,
	accessExpiresAt, refreshExpiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET access_token = $3,
			refresh_token = $4,
			access_token_expires_at = $5,
			refresh_token_expires_at = $6,
			last_activity = now(),
			updated_at = now()
		WHERE id = $1 AND refresh_token = $2 AND is_active AND expires_at > now()
	`, id, oldRefreshToken, newAccessToken, newRefreshToken, accessExpiresAt, refreshExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to rotate session tokens: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return autherror.ErrSessionNotFound
	}
	return nil
}

// Deactivate is idempotent: deactivating a missing or already-terminal
// session is a success.
func (r *SessionRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeactivateAllForUser(ctx context.Context, userID, exceptID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET is_active = false, updated_at = now()
		WHERE user_id = $1 AND is_active AND ($2 = '' OR id <> $2)
	`, userID, exceptID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at <= now()
			OR (is_active = false AND updated_at <= now() - make_interval(secs => $1))
	`, r.inactiveRetention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
