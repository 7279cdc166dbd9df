package handlers

import (
	"net/http"
	"strconv"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/booking"
)

type dashboardPage struct {
	Appointments []booking.DashboardItem
	Saved        bool
	NotSaved     bool
}

// Dashboard lists the visitor's upcoming appointments. A POST either cancels one of them
// (appointment_id set) or saves the profile form.
func (s *Site) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireLogin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	page := dashboardPage{}

	if r.Method == http.MethodPost {
		if raw := r.FormValue("appointment_id"); raw != "" {
			appointmentID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				s.fail(w, r, booking.ErrNotFound)
				return
			}
			if err := s.workflow.Cancel(ctx, id, appointmentID); err != nil {
				s.fail(w, r, err)
				return
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}

		err := s.accounts.UpdateProfile(ctx, id, r.FormValue("first_name"), r.FormValue("last_name"), r.FormValue("phone_number"))
		if err != nil {
			s.logger.WarnContext(ctx, "profile not saved", "user_id", id.UserID, "err", err)
			page.NotSaved = true
		} else {
			page.Saved = true
			if fresh, err := s.accounts.Identity(ctx, sessionToken(r)); err == nil {
				r = r.WithContext(WithIdentity(ctx, fresh))
			}
		}
	}

	items, err := s.workflow.Dashboard(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page.Appointments = items
	s.render(w, r, http.StatusOK, "dashboard.html", page)
}
