package db

import (
	"context"
	"testing"
	"time"
)

func TestPoolOptionsDefaults(t *testing.T) {
	got := PoolOptions{}.withDefaults()
	if got.MaxConns != 10 || got.MinConns != 1 {
		t.Fatalf("unexpected conns: %+v", got)
	}
	if got.MaxConnLifetime != 30*time.Minute || got.MaxConnIdleTime != 5*time.Minute {
		t.Fatalf("unexpected lifetimes: %+v", got)
	}

	clamped := PoolOptions{MaxConns: 2, MinConns: 5}.withDefaults()
	if clamped.MinConns != 2 {
		t.Fatalf("expected MinConns clamped to 2, got %d", clamped.MinConns)
	}
}

func TestReadyCheckWithoutPool(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error for nil pool")
	}
	if _, err := Migrate(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error migrating without a pool")
	}
}
