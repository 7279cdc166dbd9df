package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
)

func (s *Site) Services(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListDisplayed(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "services.html", struct{ Services []model.Service }{services})
}

func (s *Site) About(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", nil)
}

func (s *Site) ThankYou(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "thankyou.html", nil)
}

func (s *Site) BookError(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "book_error.html", nil)
}

type contactForm struct {
	FirstName string
	LastName  string
	Email     string
	Subject   string
	Message   string
}

func (f contactForm) validate() map[string]string {
	errs := map[string]string{}
	for name, value := range map[string]string{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"email":      f.Email,
		"subject":    f.Subject,
		"message":    f.Message,
	} {
		if value == "" {
			errs[name] = "this field is required"
		}
	}
	if _, ok := errs["email"]; !ok {
		if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
			errs["email"] = "enter a valid email address"
		}
	}
	return errs
}

type contactPage struct {
	Form   contactForm
	Errors map[string]string
	Sent   bool
}

// Contact sends the visitor's question to the firm inbox with the visitor in copy.
func (s *Site) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		id := IdentityFrom(r.Context())
		s.render(w, r, http.StatusOK, "contact.html", contactPage{
			Form: contactForm{FirstName: id.FirstName, LastName: id.LastName, Email: id.Email},
			Sent: r.URL.Query().Get("sent") == "1",
		})
		return
	}

	form := contactForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Subject:   strings.TrimSpace(r.FormValue("subject")),
		Message:   strings.TrimSpace(r.FormValue("message")),
	}
	if errs := form.validate(); len(errs) > 0 {
		s.render(w, r, http.StatusBadRequest, "contact.html", contactPage{Form: form, Errors: errs})
		return
	}

	msg := notify.Message{
		Kind: notify.KindContact,
		To:   []string{s.cfg.ContactInbox},
		Cc:   []string{form.Email},
		Fields: []notify.Field{
			{Name: "first_name", Value: form.FirstName},
			{Name: "last_name", Value: form.LastName},
			{Name: "email", Value: form.Email},
			{Name: "subject", Value: form.Subject},
			{Name: "message", Value: form.Message},
		},
	}
	if err := s.notifier.Send(r.Context(), msg); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}
