package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/booking"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home.html",
	"post.html",
	"services.html",
	"about.html",
	"contact.html",
	"book.html",
	"thankyou.html",
	"book_error.html",
	"error.html",
	"dashboard.html",
	"login.html",
}

const postsPerPage = 6

type Content interface {
	ListPublished(ctx context.Context, page, perPage int) ([]model.Post, int, error)
	GetPublished(ctx context.Context, slug string) (model.Post, error)
	ApprovedComments(ctx context.Context, postID int64) ([]model.Comment, error)
	AddComment(ctx context.Context, c model.Comment) (int64, error)
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
}

type Catalog interface {
	ListDisplayed(ctx context.Context) ([]model.Service, error)
}

type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Config struct {
	FirmName     string
	ContactInbox string
	// SecureCookie marks the session cookie Secure; off for plain-HTTP local runs.
	SecureCookie bool
}

type Site struct {
	logger    *slog.Logger
	templates map[string]*template.Template
	content   Content
	catalog   Catalog
	workflow  *booking.Workflow
	accounts  *accounts.Service
	notifier  Notifier
	cfg       Config
}

func NewSite(logger *slog.Logger, content Content, catalog Catalog, workflow *booking.Workflow, accts *accounts.Service, notifier Notifier, cfg Config) (*Site, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[page] = t
	}
	return &Site{
		logger:    logger,
		templates: templates,
		content:   content,
		catalog:   catalog,
		workflow:  workflow,
		accounts:  accts,
		notifier:  notifier,
		cfg:       cfg,
	}, nil
}

// Register adds the site routes to mux. The post detail pattern only matches paths with a
// trailing slash, so it never shadows the fixed routes.
func (s *Site) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /services", s.Services)
	mux.HandleFunc("GET /about", s.About)
	mux.HandleFunc("GET /contact", s.Contact)
	mux.HandleFunc("POST /contact", s.Contact)
	mux.HandleFunc("GET /book", s.Book)
	mux.HandleFunc("POST /book", s.Book)
	mux.HandleFunc("GET /book/slots", s.Slots)
	mux.HandleFunc("GET /thankyou", s.ThankYou)
	mux.HandleFunc("GET /book-error", s.BookError)
	mux.HandleFunc("GET /dashboard", s.Dashboard)
	mux.HandleFunc("POST /dashboard", s.Dashboard)
	mux.HandleFunc("GET /edit/{id}", s.Edit)
	mux.HandleFunc("POST /edit/{id}", s.Edit)
	mux.HandleFunc("GET /accounts/login", s.Login)
	mux.HandleFunc("POST /accounts/login", s.Login)
	mux.HandleFunc("POST /accounts/logout", s.Logout)
	mux.HandleFunc("POST /like/{slug}", s.Like)
	mux.HandleFunc("GET /{slug}/{$}", s.Post)
	mux.HandleFunc("POST /{slug}/{$}", s.Post)
}

type view struct {
	Firm     string
	Identity model.Identity
	Data     any
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", view{Firm: s.cfg.FirmName, Identity: IdentityFrom(r.Context()), Data: data}); err != nil {
		s.logger.ErrorContext(r.Context(), "render page", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail maps workflow errors onto responses. Authorization failures share one page so the
// response does not tell whether the appointment exists.
func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case booking.IsValidation(err):
		http.Redirect(w, r, "/book-error", http.StatusSeeOther)
	case errors.Is(err, booking.ErrForbidden), errors.Is(err, booking.ErrNotFound):
		s.render(w, r, http.StatusForbidden, "error.html", nil)
	case errors.Is(err, booking.ErrNotCancellable):
		s.render(w, r, http.StatusConflict, "error.html", nil)
	case errors.Is(err, notify.ErrBadHeader):
		http.Error(w, "Invalid header found.", http.StatusBadRequest)
	case errors.Is(err, notify.ErrDelivery):
		s.logger.ErrorContext(r.Context(), "email not delivered", "path", r.URL.Path, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Site) requireLogin(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id := IdentityFrom(r.Context())
	if id.Authenticated() {
		return id, true
	}
	next := r.URL.Path
	if r.Method == http.MethodGet && r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/accounts/login?next="+url.QueryEscape(next), http.StatusSeeOther)
	return model.Identity{}, false
}
