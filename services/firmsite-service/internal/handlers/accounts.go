package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
)

type loginPage struct {
	Next     string
	Username string
	Failed   bool
}

// safeNext keeps redirects on this site: a plain local path with no scheme, host or
// characters a browser would strip or reinterpret.
func safeNext(next string) string {
	const fallback = "/dashboard"
	if next == "" || strings.ContainsFunc(next, unsafeRedirectRune) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.ContainsFunc(u.Path, unsafeRedirectRune) {
		return fallback
	}
	return next
}

func unsafeRedirectRune(r rune) bool {
	return r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r)
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Site) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "login.html", loginPage{Next: safeNext(r.URL.Query().Get("next"))})
		return
	}

	ctx := r.Context()
	username := strings.TrimSpace(r.FormValue("username"))
	next := safeNext(r.FormValue("next"))
	token, user, err := s.accounts.Login(ctx, username, r.FormValue("password"))
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			s.logger.InfoContext(ctx, "login rejected", "username", username)
			s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{Next: next, Username: username, Failed: true})
			return
		}
		s.fail(w, r, err)
		return
	}

	s.setSession(w, token)
	s.logger.InfoContext(ctx, "login", "user_id", user.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Site) Logout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
