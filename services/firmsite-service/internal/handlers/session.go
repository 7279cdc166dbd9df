package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

const SessionCookie = "firmsite_session"

type identityKey struct{}

func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the requester stored by the session middleware, anonymous when none.
func IdentityFrom(ctx context.Context) model.Identity {
	id, _ := ctx.Value(identityKey{}).(model.Identity)
	return id
}

// Sessions resolves the session cookie into an identity for every request. A stale or forged
// cookie is cleared and the request continues anonymously.
func (s *Site) Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.accounts.Identity(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, accounts.ErrInvalidSession) {
				s.logger.ErrorContext(r.Context(), "resolve session", "err", err)
			}
			s.clearSession(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (s *Site) setSession(w http.ResponseWriter, token string) {
	ttl := s.accounts.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Site) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
