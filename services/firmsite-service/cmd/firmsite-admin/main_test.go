package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/planning"
)

// execute runs the root command without a database so only checks made before connecting
// can succeed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	databaseURL = ""
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestPlanningSaveRejectsSemicolons(t *testing.T) {
	_, err := execute(t, "planning", "save", "Office hours",
		"--allow-times=12:00;13:00", "--disabled-dates=", "--disabled-weekdays=0,6")
	var verr *planning.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields[planning.FieldAllowTimes]; !ok || len(verr.Fields) != 1 {
		t.Fatalf("expected only allow_times to fail, got %v", verr.Fields)
	}
}

func TestPlanningSaveValidReachesDatabase(t *testing.T) {
	_, err := execute(t, "planning", "save", "Office hours",
		"--allow-times=09:00,10:00", "--disabled-dates=24.12.2030", "--disabled-weekdays=0,6")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected the missing database error after validation, got %v", err)
	}
}

func TestServicesSaveValidation(t *testing.T) {
	cases := map[string][]string{
		"negative price":   {"--price=-1", "--duration=30"},
		"three decimals":   {"--price=10.005", "--duration=30"},
		"missing duration": {"--price=50.00", "--duration=0"},
		"too large":        {"--price=100000000", "--duration=30"},
	}
	for name, flags := range cases {
		args := append([]string{"services", "save", "Consult"}, flags...)
		_, err := execute(t, args...)
		if err == nil || strings.Contains(err.Error(), "DATABASE_URL") {
			t.Fatalf("%s: expected a validation error, got %v", name, err)
		}
	}

	_, err := execute(t, "services", "save", "Consult", "--price=50.00", "--duration=30")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected a valid service to reach the database step, got %v", err)
	}
}

func TestUsersCreateValidation(t *testing.T) {
	if _, err := execute(t, "users", "create", "ada", "--email=not-an-email", "--password=longenough"); err == nil || !strings.Contains(err.Error(), "invalid email") {
		t.Fatalf("expected invalid email error, got %v", err)
	}
	if _, err := execute(t, "users", "create", "ada", "--email=a@x.com", "--password=short"); err == nil || !strings.Contains(err.Error(), "at least 8") {
		t.Fatalf("expected short password error, got %v", err)
	}
}

func TestPostsCreateValidation(t *testing.T) {
	if _, err := execute(t, "posts", "create", "Not A Slug", "--title=Hello", "--author=ada"); err == nil || !strings.Contains(err.Error(), "invalid slug") {
		t.Fatalf("expected invalid slug error, got %v", err)
	}
	if _, err := execute(t, "posts", "create", "hello-world", "--title=", "--author=ada"); err == nil || !strings.Contains(err.Error(), "--title") {
		t.Fatalf("expected missing title error, got %v", err)
	}
}

func TestCommentsApproveRequiresNumericID(t *testing.T) {
	if _, err := execute(t, "comments", "approve", "abc"); err == nil || !strings.Contains(err.Error(), "invalid comment id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
	if _, err := execute(t, "comments", "approve"); err == nil {
		t.Fatal("expected an argument count error")
	}
}
