package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/okrainets/contactbook/internal/domain"
)

// TokenPair bundles the access token and refresh token returned by Login and
// Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ConfirmResult reports the outcome of an email confirmation.
type ConfirmResult int

const (
	// Confirmed means the account was transitioned to confirmed.
	Confirmed ConfirmResult = iota
	// AlreadyConfirmed means the account was confirmed before this call.
	// Repeating the call is a no-op.
	AlreadyConfirmed
)

// AuthService orchestrates signup, login, token refresh, email confirmation,
// and current-user resolution.
type AuthService struct {
	users  domain.UserRepository
	hasher *PasswordHasher
	tokens *TokenService
	mailer domain.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher *PasswordHasher, tokens *TokenService, mailer domain.Mailer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
	}
}

// Register creates a new, unconfirmed account and dispatches a confirmation
// email. The dispatch is fire-and-forget: the caller never waits on mail
// delivery and mail failures are logged, not returned.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.dispatchConfirmation(user.Email)
	return user, nil
}

// Authenticate verifies credentials and returns the matching user. Unknown
// email and wrong password fail with the same error so callers cannot probe
// which accounts exist.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials against a confirmed account and returns a fresh
// token pair. The refresh token is persisted on the user row so it can be
// checked and rotated by Refresh.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidEmail
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !user.Confirmed {
		return nil, domain.ErrEmailNotConfirmed
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidPassword
	}

	return s.issueTokenPair(ctx, user.Email)
}

// Refresh validates a refresh token, requires it to match the one stored for
// the subject, and rotates it, returning a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	return s.issueTokenPair(ctx, user.Email)
}

// CurrentUser resolves a bearer access token to the user it identifies.
// Invalid, expired, or cross-purpose tokens and tokens whose subject no
// longer maps to an account all fail with domain.ErrUnauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*domain.User, error) {
	email, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// ConfirmEmail resolves a confirmation token and transitions the account to
// confirmed. Confirming an already-confirmed account is an idempotent no-op
// reported as AlreadyConfirmed, and does not dispatch mail.
func (s *AuthService) ConfirmEmail(ctx context.Context, tokenString string) (ConfirmResult, error) {
	email, err := s.tokens.ResolveConfirmationSubject(tokenString)
	if err != nil {
		return 0, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrVerification
		}
		return 0, fmt.Errorf("look up user: %w", err)
	}
	if user.Confirmed {
		return AlreadyConfirmed, nil
	}

	if err := s.users.SetConfirmed(ctx, email); err != nil {
		return 0, fmt.Errorf("confirm user: %w", err)
	}
	return Confirmed, nil
}

// RequestConfirmation re-sends the confirmation email for an unconfirmed
// account. It reports AlreadyConfirmed without dispatching mail when the
// account is confirmed.
func (s *AuthService) RequestConfirmation(ctx context.Context, email string) (ConfirmResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("look up user: %w", err)
	}
	if user.Confirmed {
		return AlreadyConfirmed, nil
	}

	s.dispatchConfirmation(user.Email)
	return Confirmed, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, email string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, email, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// dispatchConfirmation sends the confirmation email in the background so the
// request/response cycle never blocks on mail delivery.
func (s *AuthService) dispatchConfirmation(email string) {
	token, err := s.tokens.IssueConfirmationToken(email)
	if err != nil {
		slog.Error("issue confirmation token", "error", err)
		return
	}

	go func() {
		if err := s.mailer.SendConfirmation(context.Background(), email, token); err != nil {
			slog.Error("send confirmation email", "recipient", email, "error", err)
		}
	}()
}
