package domain

import (
	"context"
	"time"
)

// User represents a registered account. Email is the natural key and doubles
// as the JWT subject claim.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Confirmed    bool
	AvatarURL    string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users. Each call is a
// single atomic read or write against one row keyed by id or email.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetConfirmed marks the account confirmed. The flag is monotonic:
	// there is no operation to clear it.
	SetConfirmed(ctx context.Context, email string) error

	UpdateAvatar(ctx context.Context, email, avatarURL string) error
	UpdateRefreshToken(ctx context.Context, email, refreshToken string) error
}
