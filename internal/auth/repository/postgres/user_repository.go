package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/novalane/auth-service/internal/auth/domain"
)

// DB is the subset of pgxpool.Pool the repositories need; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, login_attempts, lock_until, is_active, is_admin, created_at, updated_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.LoginAttempts,
		&user.LockUntil, &user.IsActive, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, login_attempts, lock_until, is_active, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.Email, user.PasswordHash, user.LoginAttempts, user.LockUntil,
		user.IsActive, user.IsAdmin, user.CreatedAt, user.UpdatedAt)

	return err
}

// IncrementLoginAttempts bumps the failure counter in one statement. A lock
// that has already expired is cleared in the same statement and the counter
// restarts at 1, so an old lock never inflates a fresh counting round.
func (r *UserRepository) IncrementLoginAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE users
		SET login_attempts = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= now() THEN 1
				ELSE login_attempts + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= now() THEN NULL
				ELSE lock_until
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING login_attempts;
	`

	var attempts int
	if err := r.db.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}
	return attempts, nil
}

// LockAccount sets lock_until unless a live lock is already in place.
func (r *UserRepository) LockAccount(ctx context.Context, id string, until time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET lock_until = $2, updated_at = now()
		WHERE id = $1 AND (lock_until IS NULL OR lock_until <= now())
	`, id, until)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	return nil
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
