package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// SMTPTransport delivers through an SMTP relay. Credentials are optional (Mailpit needs none).
type SMTPTransport struct {
	addr string
	auth smtp.Auth
}

func NewSMTPTransport(host, port, username, password string) *SMTPTransport {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPTransport{
		addr: net.JoinHostPort(host, port),
		auth: auth,
	}
}

// Deliver blocks until the relay accepted the message. net/smtp has no context support, so ctx
// is only checked before dialing.
func (t *SMTPTransport) Deliver(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(t.addr, t.auth, env.From, env.Recipients, env.Raw); err != nil {
		return fmt.Errorf("smtp %s: %w", t.addr, err)
	}
	return nil
}

// LogTransport only logs what would have been sent. Used when SMTP_HOST is empty.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Deliver(ctx context.Context, env Envelope) error {
	if t.Logger != nil {
		t.Logger.InfoContext(ctx, "email not sent (log transport)",
			"subject", env.Subject,
			"recipients", env.Recipients,
			"bytes", len(env.Raw),
		)
	}
	return nil
}
