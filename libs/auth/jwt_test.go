package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	claims := NewClaims("7", "anna", "anna@example.com", now, time.Hour)
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret, now)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != "7" || parsed.Username != "anna" || parsed.Email != "anna@example.com" {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret", now); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
	if _, err := ParseAndVerifyHS256(token, secret, now.Add(2*time.Hour)); !errors.Is(err, ErrExpired) || !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrExpired wrapping ErrInvalidToken, got %v", err)
	}
	if _, err := ParseAndVerifyHS256(token+".extra", secret, now); err == nil {
		t.Fatal("expected a four-segment token to be rejected")
	}
}

func TestRejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	token, err := SignHS256(NewClaims("1", "a", "a@x.com", now, time.Hour), "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parts := strings.Split(token, ".")
	parts[0] = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	if _, err := ParseAndVerifyHS256(strings.Join(parts, "."), "s", now); err == nil {
		t.Fatal("expected alg=none to be rejected")
	}
	if _, err := SignHS256(Claims{Sub: "1"}, ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
