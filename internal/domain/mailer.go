package domain

import "context"

// Mailer sends outbound email. Delivery is best-effort: callers log failures
// and never surface them to the HTTP client.
type Mailer interface {
	// SendConfirmation sends an email-confirmation message containing a link
	// built from the given confirmation token.
	SendConfirmation(ctx context.Context, recipient, token string) error
}
