package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okrainets/contactbook/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, confirmed, avatar_url, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Confirmed, user.AvatarURL, user.RefreshToken, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, confirmed, avatar_url, refresh_token, created_at, updated_at
		 FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT id, email, password_hash, confirmed, avatar_url, refresh_token, created_at, updated_at
		 FROM users WHERE email = ?`, email)
}

// SetConfirmed flips the confirmed flag to true. It never clears the flag.
func (r *UserRepository) SetConfirmed(ctx context.Context, email string) error {
	return r.update(ctx,
		"UPDATE users SET confirmed = 1, updated_at = ? WHERE email = ?",
		time.Now().UTC(), email)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, email, avatarURL string) error {
	return r.update(ctx,
		"UPDATE users SET avatar_url = ?, updated_at = ? WHERE email = ?",
		avatarURL, time.Now().UTC(), email)
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, email, refreshToken string) error {
	return r.update(ctx,
		"UPDATE users SET refresh_token = ?, updated_at = ? WHERE email = ?",
		refreshToken, time.Now().UTC(), email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Confirmed,
		&user.AvatarURL, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
