// Package auth signs and verifies the compact HS256 tokens carried in session cookies.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = fmt.Errorf("%w: expired", ErrInvalidToken)
)

var b64 = base64.RawURLEncoding

// hs256Header is the encoded {"alg":"HS256","typ":"JWT"} segment every token starts with.
var hs256Header = b64.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Claims identify a signed-in site account. Sub is the numeric user id in decimal form.
type Claims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
}

func NewClaims(sub, username, email string, now time.Time, ttl time.Duration) Claims {
	return Claims{Sub: sub, Username: username, Email: email, Iat: now.Unix(), Exp: now.Add(ttl).Unix()}
}

func (c Claims) expired(now time.Time) bool {
	return c.Exp > 0 && now.Unix() > c.Exp
}

func SignHS256(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	signed := hs256Header + "." + b64.EncodeToString(body)
	return signed + "." + signature(signed, secret), nil
}

// ParseAndVerifyHS256 checks the signature and expiry against now. The header alg must be
// HS256; tokens claiming any other algorithm are rejected.
func ParseAndVerifyHS256(token, secret string, now time.Time) (*Claims, error) {
	head, body, sig, ok := split(token)
	if !ok || secret == "" {
		return nil, ErrInvalidToken
	}

	var header struct {
		Alg string `json:"alg"`
	}
	if err := decodeSegment(head, &header); err != nil || header.Alg != "HS256" {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(signature(head+"."+body, secret))) {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := decodeSegment(body, &claims); err != nil || claims.Sub == "" {
		return nil, ErrInvalidToken
	}
	if claims.expired(now) {
		return nil, ErrExpired
	}
	return &claims, nil
}

func split(token string) (head, body, sig string, ok bool) {
	head, rest, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", "", false
	}
	body, sig, ok = strings.Cut(rest, ".")
	if !ok || strings.Contains(sig, ".") {
		return "", "", "", false
	}
	return head, body, sig, true
}

func decodeSegment(seg string, v any) error {
	raw, err := b64.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func signature(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return b64.EncodeToString(mac.Sum(nil))
}
