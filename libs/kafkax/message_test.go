package kafkax

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka:9092, ,kafka2:9092 ")
	if len(got) != 2 || got[0] != "kafka:9092" || got[1] != "kafka2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatal("expected nil for empty input")
	}
	if ReadyCheck("") != nil {
		t.Fatal("expected no ready check without brokers")
	}
}

func TestEventMessageCarriesHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg := EventMessage(ctx, "evt-1", "booking.appointment.booked.v1", "42", []byte(`{}`))
	if msg.Topic != "booking.appointment.booked.v1" || string(msg.Key) != "42" {
		t.Fatalf("unexpected message routing: topic=%q key=%q", msg.Topic, msg.Key)
	}
	if HeaderValue(msg.Headers, HeaderEventID) != "evt-1" {
		t.Fatal("expected event_id header")
	}
	if HeaderValue(msg.Headers, "traceparent") == "" {
		t.Fatal("expected traceparent header")
	}
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msg.Headers))
	if got.TraceID() != sc.TraceID() {
		t.Fatalf("expected trace id %s, got %s", sc.TraceID(), got.TraceID())
	}
}
