package storage

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	if !IsNotFound(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)) {
		t.Fatal("expected pgx.ErrNoRows to be not found")
	}
	if err := noRecord(pgx.ErrNoRows, "service 1"); !errors.Is(err, model.ErrNoRecord) || !IsNotFound(err) {
		t.Fatalf("expected translated not-found error, got %v", err)
	}
	other := errors.New("boom")
	if noRecord(other, "x") != other {
		t.Fatal("other errors must pass through unchanged")
	}

	fk := fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"})
	if !IsProtected(fk) || IsUniqueViolation(fk) {
		t.Fatal("expected foreign key violation to be protected")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation")
	}
}

func TestPageOffset(t *testing.T) {
	cases := []struct {
		page, total int
		offset      int
		ok          bool
	}{
		{page: 1, total: 0, offset: 0, ok: true},
		{page: 1, total: 10, offset: 0, ok: true},
		{page: 2, total: 10, offset: 6, ok: true},
		{page: 3, total: 12, offset: 0, ok: false},
		{page: 3, total: 13, offset: 12, ok: true},
		{page: 0, total: 10, offset: 0, ok: false},
		{page: math.MaxInt, total: 10, offset: 0, ok: false},
		{page: math.MaxInt/6 + 2, total: 10, offset: 0, ok: false},
	}
	for _, c := range cases {
		offset, ok := PageOffset(c.page, 6, c.total)
		if ok != c.ok || offset != c.offset {
			t.Fatalf("PageOffset(%d, 6, %d) = %d, %v; expected %d, %v", c.page, c.total, offset, ok, c.offset, c.ok)
		}
	}
}
