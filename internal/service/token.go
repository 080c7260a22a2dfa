package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okrainets/contactbook/internal/domain"
)

// TokenPurpose declares what a token may be used for. Verification rejects
// tokens presented outside their declared purpose, so an access token is
// never accepted where a confirmation token is expected and vice versa.
type TokenPurpose string

const (
	PurposeAccess       TokenPurpose = "access"
	PurposeRefresh      TokenPurpose = "refresh"
	PurposeEmailConfirm TokenPurpose = "email_confirm"
)

const (
	// DefaultAccessTokenTTL is used when no TTL is configured.
	DefaultAccessTokenTTL = 15 * time.Minute

	refreshTokenTTL      = 7 * 24 * time.Hour
	confirmationTokenTTL = 7 * 24 * time.Hour
)

// Claims are the JWT claims carried by every token this service issues.
// Subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"purpose"`
}

// TokenService issues and validates signed, time-bounded tokens. It is
// constructed once with the process-wide signing secret; issuance and
// verification perform no I/O.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenService creates a TokenService signing with the given secret.
// A non-positive accessTTL falls back to DefaultAccessTokenTTL.
func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

// IssueAccessToken issues a short-lived access token for the subject using
// the configured TTL.
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, PurposeAccess, s.accessTTL)
}

// IssueAccessTokenTTL issues an access token with an explicit TTL.
func (s *TokenService) IssueAccessTokenTTL(subject string, ttl time.Duration) (string, error) {
	return s.issue(subject, PurposeAccess, ttl)
}

// IssueRefreshToken issues a long-lived refresh token for the subject.
func (s *TokenService) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, PurposeRefresh, refreshTokenTTL)
}

// IssueConfirmationToken issues a long-lived, single-purpose token proving
// control of the subject email address.
func (s *TokenService) IssueConfirmationToken(subject string) (string, error) {
	return s.issue(subject, PurposeEmailConfirm, confirmationTokenTTL)
}

// VerifyAccessToken checks signature, expiry, and purpose, and returns the
// subject. It fails with domain.ErrInvalidToken when the token is malformed,
// expired, wrongly signed, or issued for another purpose, and with
// domain.ErrMissingSubject when the payload lacks a subject claim.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return s.verify(tokenString, PurposeAccess)
}

// VerifyRefreshToken checks signature, expiry, and purpose of a refresh
// token and returns the subject.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return s.verify(tokenString, PurposeRefresh)
}

// ResolveConfirmationSubject decodes an email-confirmation token and returns
// its subject. Any failure is reported as domain.ErrUnprocessableToken so
// the boundary can respond distinctly from generic authentication failure.
func (s *TokenService) ResolveConfirmationSubject(tokenString string) (string, error) {
	subject, err := s.verify(tokenString, PurposeEmailConfirm)
	if err != nil {
		return "", domain.ErrUnprocessableToken
	}
	return subject, nil
}

func (s *TokenService) issue(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Claim timestamps have second precision, so without a unique id
			// two tokens issued in the same second would be byte-identical.
			// Rotation depends on every refresh token being distinct.
			ID: uuid.NewString(),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(tokenString string, purpose TokenPurpose) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return "", domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", domain.ErrMissingSubject
	}

	return claims.Subject, nil
}
