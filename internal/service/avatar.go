package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okrainets/contactbook/internal/domain"
)

// MaxAvatarBytes caps uploaded avatar image size.
const MaxAvatarBytes = 5 << 20 // 5MB

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarService stores avatar images in an object store and records the
// resulting URL on the user.
type AvatarService struct {
	users domain.UserRepository
	store domain.AvatarStore
}

// NewAvatarService creates a new AvatarService.
func NewAvatarService(users domain.UserRepository, store domain.AvatarStore) *AvatarService {
	return &AvatarService{users: users, store: store}
}

// UpdateAvatar validates and uploads the image, persists the new avatar URL
// on the user, and returns the updated user.
func (s *AvatarService) UpdateAvatar(ctx context.Context, user *domain.User, data []byte, contentType string) (*domain.User, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no file was provided", domain.ErrInvalidInput)
	}
	if len(data) > MaxAvatarBytes {
		return nil, fmt.Errorf("%w: avatar exceeds %d bytes", domain.ErrInvalidInput, MaxAvatarBytes)
	}
	if !allowedAvatarTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, contentType)
	}

	key := "avatars/" + uuid.NewString()
	url, err := s.store.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.users.UpdateAvatar(ctx, user.Email, url); err != nil {
		return nil, fmt.Errorf("update avatar url: %w", err)
	}

	updated := *user
	updated.AvatarURL = url
	return &updated, nil
}
