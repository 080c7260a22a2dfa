package mailer

import (
	"context"
	"log/slog"
)

// Disabled is a no-op mailer used when SMTP is not configured. It logs the
// would-be delivery so local development can still exercise the
// confirmation flow.
type Disabled struct{}

// NewDisabled creates a no-op mailer.
func NewDisabled() *Disabled {
	return &Disabled{}
}

// SendConfirmation logs the skipped delivery and succeeds.
func (m *Disabled) SendConfirmation(ctx context.Context, recipient, token string) error {
	slog.Info("mail disabled, skipping confirmation email", "recipient", recipient)
	return nil
}
