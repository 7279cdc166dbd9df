package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/booking"
)

const slotDayLayout = "02-01-2006"

type bookPage struct {
	Form     booking.Form
	Choices  []booking.Choice
	Calendar booking.Calendar
	Editing  bool
	Action   string
}

func formFromRequest(r *http.Request) booking.Form {
	return booking.Form{
		Service:     r.FormValue("service"),
		DateTime:    r.FormValue("date_time"),
		Email:       r.FormValue("email"),
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		PhoneNumber: r.FormValue("phone_number"),
	}
}

// Book renders the booking form or books an appointment. Anonymous visitors may book.
func (s *Site) Book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := IdentityFrom(ctx)

	if r.Method == http.MethodPost {
		if _, err := s.workflow.Create(ctx, id, formFromRequest(r)); err != nil {
			s.fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/thankyou", http.StatusSeeOther)
		return
	}

	choices, err := s.workflow.Choices(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cal, err := s.workflow.Calendar(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "book.html", bookPage{
		Form:     booking.InitialForm(id),
		Choices:  choices,
		Calendar: cal,
		Action:   "/book",
	})
}

// Edit shows or saves the booker's own appointment. Ownership is checked on both methods.
func (s *Site) Edit(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || appointmentID <= 0 {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	id := IdentityFrom(ctx)

	if r.Method == http.MethodPost {
		if _, err := s.workflow.Edit(ctx, id, appointmentID, formFromRequest(r)); err != nil {
			s.fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	page, err := s.workflow.EditView(ctx, id, appointmentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cal, err := s.workflow.Calendar(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "book.html", bookPage{
		Form:     page.Form,
		Choices:  page.Choices,
		Calendar: cal,
		Editing:  true,
		Action:   "/edit/" + strconv.FormatInt(appointmentID, 10),
	})
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Slots returns the free start times of one day for a service choice.
func (s *Site) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := time.Parse(slotDayLayout, strings.TrimSpace(q.Get("date")))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	choice, err := booking.ParseServiceChoice(q.Get("service"))
	if err != nil {
		http.Error(w, "invalid service", http.StatusBadRequest)
		return
	}

	starts, err := s.workflow.FreeSlots(r.Context(), day, choice)
	if err != nil {
		if booking.IsValidation(err) {
			http.Error(w, "invalid service", http.StatusBadRequest)
			return
		}
		s.fail(w, r, err)
		return
	}

	resp := slotsResponse{Date: day.Format(slotDayLayout), Slots: make([]string, 0, len(starts))}
	for _, t := range starts {
		resp.Slots = append(resp.Slots, t.Format("15:04"))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
