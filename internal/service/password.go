package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/okrainets/contactbook/internal/domain"
)

// PasswordHasher performs one-way hashing and verification of plaintext
// passwords using bcrypt. It holds no mutable state and is safe for
// concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of the plaintext. The salt is random,
// so hashing the same plaintext twice yields different digests.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password must not be empty", domain.ErrInvalidInput)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. A mismatch is not
// an error. bcrypt recomputes with the salt embedded in the digest and
// compares without early exit on mismatch.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
