// Package mailer provides the outbound email collaborator. The SMTP
// implementation delivers confirmation mail; delivery is best-effort and
// callers are expected to log, not propagate, failures.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/dajohi/goemail"
)

// Config holds SMTP connection and sender identity settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	FromAddr string
	FromName string

	// BaseURL is the public address of this service, used to build
	// confirmation links.
	BaseURL string
}

// SMTP sends mail through an SMTP server from a preset address.
type SMTP struct {
	smtp     *goemail.SMTP
	fromAddr string
	fromName string
	baseURL  string
}

// NewSMTP creates an SMTP mailer from the given config.
func NewSMTP(cfg Config) (*SMTP, error) {
	raw := fmt.Sprintf("smtps://%s:%s@%s:%d",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse smtp url: %w", err)
	}

	tlsConfig := &tls.Config{
		ServerName: cfg.Host,
	}
	smtp, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("dial smtp: %w", err)
	}

	return &SMTP{
		smtp:     smtp,
		fromAddr: cfg.FromAddr,
		fromName: cfg.FromName,
		baseURL:  cfg.BaseURL,
	}, nil
}

// SendConfirmation sends an email-confirmation message whose link embeds the
// given token.
func (m *SMTP) SendConfirmation(ctx context.Context, recipient, token string) error {
	body, err := renderConfirmation(confirmationData{
		Recipient: recipient,
		Link:      fmt.Sprintf("%s/api/auth/confirm/%s", m.baseURL, token),
	})
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}

	msg := goemail.NewHTMLMessage(m.fromAddr, confirmationSubject, body)
	msg.SetName(m.fromName)
	msg.AddTo(recipient)

	if err := m.smtp.Send(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
