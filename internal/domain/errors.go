package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so callers cannot tell which case occurred.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Login failures. These are distinct so the handler can report why a
	// login was rejected, matching the original API contract.
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// Token failures.
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSubject     = errors.New("token has no subject claim")
	ErrUnprocessableToken = errors.New("invalid token for email verification")

	// ErrUnauthorized covers bad, expired, or malformed access tokens and
	// tokens whose subject no longer maps to a user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrVerification is returned when a confirmation token resolves to an
	// email with no matching account.
	ErrVerification = errors.New("verification error")
)
