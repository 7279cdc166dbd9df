package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextResumeAndCapture(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := TraceContext{Parent: parent}.Resume(context.Background())
	if !trace.SpanContextFromContext(ctx).IsValid() {
		t.Fatal("expected valid span context")
	}
	if got := CaptureTraceContext(ctx); got.Parent != parent {
		t.Fatalf("expected %q, got %q", parent, got.Parent)
	}
}

func TestEmptyTraceContext(t *testing.T) {
	ctx := context.Background()
	if !(TraceContext{}).Empty() {
		t.Fatal("zero value should be empty")
	}
	if (TraceContext{}).Resume(ctx) != ctx {
		t.Fatal("expected context returned unchanged")
	}
	if tc := CaptureTraceContext(ctx); !tc.Empty() {
		t.Fatalf("expected nothing captured without a span, got %+v", tc)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg := ConfigFromEnv("firmsite-service")
	if cfg.Enabled {
		t.Fatal("tracing should be off by default")
	}
	if cfg.SampleRatio != 0.25 || cfg.ServiceName != "firmsite-service" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	for _, raw := range []string{"", "1.5", "-1", "half"} {
		if got := sampleRatio(raw); got != 1 {
			t.Fatalf("sampleRatio(%q) = %v, want 1", raw, got)
		}
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
