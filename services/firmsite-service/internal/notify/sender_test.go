package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingTransport struct {
	envelopes []Envelope
	err       error
}

func (t *recordingTransport) Deliver(_ context.Context, env Envelope) error {
	t.envelopes = append(t.envelopes, env)
	return t.err
}

func bookedMessage(to string) Message {
	return Message{
		Kind: KindBooked,
		To:   []string{to},
		Fields: []Field{
			{Name: "service", Value: "Consult"},
			{Name: "date", Value: "Wednesday 25 December 2030, 10:00"},
			{Name: "first_name", Value: "Ada"},
			{Name: "last_name", Value: "Lovelace"},
			{Name: "email", Value: to},
			{Name: "phone", Value: "-"},
		},
	}
}

func TestTextBodyJoinsValuesInOrder(t *testing.T) {
	got := bookedMessage("a@x.com").TextBody()
	want := "Consult\nWednesday 25 December 2030, 10:00\nAda\nLovelace\na@x.com\n-"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSendBuildsMultipartMessage(t *testing.T) {
	tr := &recordingTransport{}
	s, err := NewSender(Config{From: "office@dejure.test", FirmName: "De Jure Law Firm"}, tr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	if err := s.Send(context.Background(), bookedMessage("a@x.com")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(tr.envelopes) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(tr.envelopes))
	}
	env := tr.envelopes[0]
	if env.Subject != "De Jure Law Firm booking" {
		t.Fatalf("unexpected subject %q", env.Subject)
	}
	if len(env.Recipients) != 1 || env.Recipients[0] != "a@x.com" {
		t.Fatalf("unexpected recipients %v", env.Recipients)
	}
	raw := string(env.Raw)
	for _, want := range []string{"multipart/alternative", "text/plain; charset=utf-8", "text/html; charset=utf-8", "Consult"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected message to contain %q", want)
		}
	}
}

func TestSendRejectsHeaderInjection(t *testing.T) {
	tr := &recordingTransport{}
	s, err := NewSender(Config{FirmName: "De Jure Law Firm"}, tr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	err = s.Send(context.Background(), bookedMessage("a@x.com\r\nBcc: victim@x.com"))
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrBadHeader, got %v", err)
	}
	if len(tr.envelopes) != 0 {
		t.Fatal("nothing may be handed to the transport")
	}
}

func TestSendWrapsTransportFailure(t *testing.T) {
	tr := &recordingTransport{err: errors.New("connection refused")}
	s, err := NewSender(Config{FirmName: "De Jure Law Firm"}, tr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	err = s.Send(context.Background(), bookedMessage("a@x.com"))
	if !errors.Is(err, ErrDelivery) || errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}

func TestSendWithoutRecipients(t *testing.T) {
	tr := &recordingTransport{}
	s, err := NewSender(Config{FirmName: "De Jure Law Firm"}, tr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	err = s.Send(context.Background(), Message{Kind: KindBooked})
	if !errors.Is(err, ErrNoRecipients) || errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if len(tr.envelopes) != 0 {
		t.Fatal("nothing may be handed to the transport")
	}
}

func TestSubjects(t *testing.T) {
	cases := map[Kind]string{
		KindBooked:   "F booking",
		KindUpdated:  "F updated booking",
		KindCanceled: "F appointment canceled.",
		KindContact:  "F website question",
	}
	for kind, want := range cases {
		if got := kind.Subject("F"); got != want {
			t.Fatalf("%s: expected %q, got %q", kind, want, got)
		}
	}
}
