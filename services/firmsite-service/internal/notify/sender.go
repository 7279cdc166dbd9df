package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	otelx "github.com/Kristaal/Law-firm/libs/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrBadHeader means an address or subject contained a line break.
	ErrBadHeader = errors.New("invalid header found")
	// ErrDelivery wraps transport failures after the message was built.
	ErrDelivery = errors.New("notification delivery failed")
	// ErrNoRecipients means the message was built without a To address.
	ErrNoRecipients = errors.New("message has no recipients")
)

//go:embed templates/*.html
var templateFS embed.FS

// Envelope is a fully built message handed to a Transport.
type Envelope struct {
	From       string
	Recipients []string
	Subject    string
	Raw        []byte
}

type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

type Config struct {
	From     string
	FirmName string
}

// Sender renders notifications and hands them to a Transport.
type Sender struct {
	from      string
	firm      string
	transport Transport
	tmpl      *template.Template
	now       func() time.Time
}

func NewSender(cfg Config, transport Transport) (*Sender, error) {
	if transport == nil {
		return nil, errors.New("notify: transport is required")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@firmsite.local"
	}
	return &Sender{
		from:      from,
		firm:      cfg.FirmName,
		transport: transport,
		tmpl:      tmpl,
		now:       time.Now,
	}, nil
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	ctx, span := otelx.Tracer("firmsite/notify").Start(ctx, "notify.send")
	defer span.End()
	span.SetAttributes(attribute.String("notify.kind", string(msg.Kind)))

	subject := msg.Kind.Subject(s.firm)
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	headers := append([]string{s.from, subject}, msg.To...)
	headers = append(headers, msg.Cc...)
	for _, h := range headers {
		if strings.ContainsAny(h, "\r\n") {
			span.SetStatus(codes.Error, "bad header")
			return ErrBadHeader
		}
	}

	var html bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&html, string(msg.Kind)+".html", msg.Values()); err != nil {
		return fmt.Errorf("render %s email: %w", msg.Kind, err)
	}

	raw, err := s.build(msg, subject, html.Bytes())
	if err != nil {
		return fmt.Errorf("build %s email: %w", msg.Kind, err)
	}

	recipients := append(append([]string{}, msg.To...), msg.Cc...)
	if err := s.transport.Deliver(ctx, Envelope{From: s.from, Recipients: recipients, Subject: subject, Raw: raw}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// build writes a multipart/alternative message with the text body first and HTML second.
func (s *Sender) build(msg Message, subject string, html []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        []byte
	}{
		{"text/plain; charset=utf-8", []byte(msg.TextBody())},
		{"text/html; charset=utf-8", html},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write(p.body); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
