// Package accounts signs visitors in with a password and resolves the session cookie back
// into a model.Identity.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kristaal/Law-firm/libs/auth"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrWeakSecret         = errors.New("session secret must be set to at least 32 characters outside development")
)

// DevSecret signs development sessions when no secret is configured. Anyone can forge a
// cookie with it.
const DevSecret = "dev-secret"

const minSecretLen = 32

// SessionSecret returns the signing secret to use. An unset secret falls back to DevSecret
// only in the development environment; elsewhere a short or default secret is an error.
func SessionSecret(secret, deployEnv string) (string, error) {
	if deployEnv == "development" {
		if secret == "" {
			return DevSecret, nil
		}
		return secret, nil
	}
	if secret == DevSecret || len(secret) < minSecretLen {
		return "", ErrWeakSecret
	}
	return secret, nil
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone string) error
}

type Service struct {
	users  UserStore
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(users UserStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Service{users: users, secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Login checks the password and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return "", model.User{}, ErrInvalidCredentials
		}
		return "", model.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}
	token, err := s.Issue(user)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

func (s *Service) Issue(user model.User) (string, error) {
	claims := auth.NewClaims(strconv.FormatInt(user.ID, 10), user.Username, user.Email, s.now(), s.ttl)
	token, err := auth.SignHS256(claims, s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Identity resolves a session token. The account is reloaded so profile edits show at once.
func (s *Service) Identity(ctx context.Context, token string) (model.Identity, error) {
	claims, err := auth.ParseAndVerifyHS256(token, s.secret, s.now())
	if err != nil {
		return model.Identity{}, ErrInvalidSession
	}
	id, err := strconv.ParseInt(claims.Sub, 10, 64)
	if err != nil || id <= 0 {
		return model.Identity{}, ErrInvalidSession
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return model.Identity{}, ErrInvalidSession
		}
		return model.Identity{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return model.IdentityOf(user), nil
}

// UpdateProfile changes the requester's names and phone. Both names are required.
func (s *Service) UpdateProfile(ctx context.Context, id model.Identity, firstName, lastName, phone string) error {
	if !id.Authenticated() {
		return ErrInvalidSession
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return errors.New("first and last name are required")
	}
	return s.users.UpdateProfile(ctx, id.UserID, firstName, lastName, strings.TrimSpace(phone))
}

func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
