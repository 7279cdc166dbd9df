package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/booking"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/memstore"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/outbox"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2030, 12, 20, 9, 0, 0, 0, time.UTC)

// switchNotifier fails with err when set and otherwise sends through the mailbox.
type switchNotifier struct {
	sender *notify.Sender
	err    error
}

func (n *switchNotifier) Send(ctx context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	return n.sender.Send(ctx, msg)
}

type siteFixture struct {
	handler  http.Handler
	content  *memstore.Content
	appts    *memstore.Appointments
	mailbox  *memstore.Mailbox
	notifier *switchNotifier
	accounts *accounts.Service
	user     model.User
	post     model.Post
}

func newSiteFixture(t *testing.T) siteFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := memstore.NewCatalog(
		model.Service{ID: 1, Title: "Consult", Description: "First meeting", ShortDescription: "Meet us", DurationMinutes: 30, Price: decimal.RequireFromString("50.00"), Active: true, Display: true},
	)
	plannings := &memstore.Plannings{}
	if _, err := plannings.Save(context.Background(), model.Planning{
		Title: "Office hours", AllowTimes: "09:00,10:00,11:00", DisabledWeekdays: "0,6", Active: true,
	}); err != nil {
		t.Fatalf("save planning: %v", err)
	}
	appts := memstore.NewAppointments()
	mailbox := &memstore.Mailbox{}
	sender, err := notify.NewSender(notify.Config{From: "office@dejure.test", FirmName: "De Jure Law Firm"}, mailbox)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	notifier := &switchNotifier{sender: sender}

	content := memstore.NewContent()
	post := content.AddPost(model.Post{Title: "Hello", Slug: "hello", AuthorName: "Admin", Content: "Welcome", Status: model.PostPublished})
	content.AddPost(model.Post{Title: "Draft", Slug: "draft", Status: model.PostDraft})

	hash, err := accounts.HashPassword("pass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	users := &memstore.Users{}
	user := users.Add(model.User{Username: "ada", Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", PasswordHash: hash})
	accts := accounts.NewService(users, "test-secret", time.Hour)

	wf := booking.NewWorkflow(catalog, plannings, appts, notifier, logger, booking.Config{
		Now: func() time.Time { return testNow },
	})
	site, err := NewSite(logger, content, catalog, wf, accts, notifier, Config{
		FirmName:     "De Jure Law Firm",
		ContactInbox: "office@dejure.test",
	})
	if err != nil {
		t.Fatalf("NewSite failed: %v", err)
	}
	mux := http.NewServeMux()
	site.Register(mux)

	return siteFixture{
		handler:  site.Sessions(mux),
		content:  content,
		appts:    appts,
		mailbox:  mailbox,
		notifier: notifier,
		accounts: accts,
		user:     user,
		post:     post,
	}
}

func (f siteFixture) do(t *testing.T, method, target string, form url.Values, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signedIn {
		token, err := f.accounts.Issue(f.user)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func bookingValues(email string) url.Values {
	return url.Values{
		"service":    {"1,30"},
		"date_time":  {"25-12-2030 10:00"},
		"email":      {email},
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
	}
}

func TestHomeListsPublishedPosts(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodGet, "/", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "/hello/") || strings.Contains(body, "/draft/") {
		t.Fatalf("expected only the published post, got %s", body)
	}
	if !strings.Contains(body, "Meet us") {
		t.Fatal("expected displayed services on the home page")
	}

	if rr := f.do(t, http.MethodGet, "/?page=9", nil, false); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 past the last page, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/?page=9223372036854775807", nil, false); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a huge page number, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/draft/", nil, false); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a draft, got %d", rr.Code)
	}
}

func TestCommentStoredUnapproved(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/hello/", url.Values{"body": {"Great read"}}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "awaiting approval") {
		t.Fatal("expected the awaiting approval notice")
	}
	if strings.Contains(rr.Body.String(), "Great read") {
		t.Fatal("unapproved comment must not render")
	}

	comments := f.content.Comments()
	if len(comments) != 1 {
		t.Fatalf("expected 1 stored comment, got %d", len(comments))
	}
	if comments[0].Approved || comments[0].Name != "ada" || comments[0].Email != "a@x.com" {
		t.Fatalf("unexpected comment %+v", comments[0])
	}

	if err := f.content.ApproveComment(context.Background(), comments[0].ID); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}
	rr = f.do(t, http.MethodGet, "/hello/", nil, false)
	if !strings.Contains(rr.Body.String(), "Great read") {
		t.Fatal("approved comment should render")
	}
}

func TestAnonymousCommentRedirectsToLogin(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/hello/", url.Values{"body": {"spam"}}, false)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/accounts/login?next=%2Fhello%2F" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if len(f.content.Comments()) != 0 {
		t.Fatal("anonymous comment must not be stored")
	}
}

func TestLikeToggles(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/like/hello", nil, true)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/hello/" {
		t.Fatalf("expected redirect to the post, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	liked, err := f.content.HasLiked(context.Background(), f.post.ID, f.user.ID)
	if err != nil || !liked {
		t.Fatalf("expected like to be recorded, got %v (%v)", liked, err)
	}
	f.do(t, http.MethodPost, "/like/hello", nil, true)
	if liked, _ := f.content.HasLiked(context.Background(), f.post.ID, f.user.ID); liked {
		t.Fatal("second like should remove it")
	}
}

func TestBookConsultEndToEnd(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/book", bookingValues("a@x.com"), false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/thankyou" {
		t.Fatalf("expected redirect to /thankyou, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	all := f.appts.All()
	if len(all) != 1 || all[0].ServiceID != 1 || all[0].UserID != nil {
		t.Fatalf("unexpected appointments %+v", all)
	}
	envs := f.mailbox.Envelopes()
	if len(envs) != 1 || len(envs[0].Recipients) != 1 || envs[0].Recipients[0] != "a@x.com" {
		t.Fatalf("expected one email to a@x.com, got %+v", envs)
	}
	if envs[0].Subject != "De Jure Law Firm booking" {
		t.Fatalf("unexpected subject %q", envs[0].Subject)
	}
}

func TestBookLinksSignedInUser(t *testing.T) {
	f := newSiteFixture(t)

	f.do(t, http.MethodPost, "/book", bookingValues("a@x.com"), true)
	all := f.appts.All()
	if len(all) != 1 || all[0].UserID == nil || *all[0].UserID != f.user.ID {
		t.Fatalf("expected appointment linked to the user, got %+v", all)
	}
}

func TestBookInvalidRedirectsToError(t *testing.T) {
	f := newSiteFixture(t)

	values := bookingValues("a@x.com")
	values.Set("date_time", "2030-12-25 10:00")
	rr := f.do(t, http.MethodPost, "/book", values, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/book-error" {
		t.Fatalf("expected redirect to /book-error, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(f.appts.All()) != 0 {
		t.Fatal("invalid form must not store an appointment")
	}
	if len(f.mailbox.Envelopes()) != 0 {
		t.Fatal("invalid form must not send email")
	}
}

func TestBookHeaderErrorKeepsAppointment(t *testing.T) {
	f := newSiteFixture(t)
	f.notifier.err = notify.ErrBadHeader

	rr := f.do(t, http.MethodPost, "/book", bookingValues("a@x.com"), false)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid header found.") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if len(f.appts.All()) != 1 {
		t.Fatal("appointment must stay stored after a header error")
	}
}

func TestBookDeliveryFailureIsServerError(t *testing.T) {
	f := newSiteFixture(t)
	f.mailbox.Err = errors.New("smtp: connection refused")

	rr := f.do(t, http.MethodPost, "/book", bookingValues("a@x.com"), false)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(f.appts.All()) != 1 {
		t.Fatalf("expected the appointment to stay stored, got %d rows", len(f.appts.All()))
	}
}

func TestBookPageCarriesNoPersonalData(t *testing.T) {
	f := newSiteFixture(t)
	if _, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "secret@x.com", FirstName: "Grace", LastName: "Hopper", ServiceID: 1,
		DateTime: time.Date(2030, 12, 23, 10, 0, 0, 0, time.UTC),
	}, outbox.AppointmentBooked); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	rr := f.do(t, http.MethodGet, "/book", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "secret@x.com") || strings.Contains(body, "Hopper") {
		t.Fatal("calendar must not expose other bookers")
	}
	if !strings.Contains(body, "2030-12-23T10:00:00") {
		t.Fatal("expected the busy slot in the calendar data")
	}
	if !strings.Contains(body, `value="a@x.com"`) {
		t.Fatal("expected the form pre-filled from the account")
	}
}

func TestSlots(t *testing.T) {
	f := newSiteFixture(t)
	if _, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "b@x.com", FirstName: "B", LastName: "B", ServiceID: 1,
		DateTime: time.Date(2030, 12, 23, 10, 0, 0, 0, time.UTC),
	}, outbox.AppointmentBooked); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	rr := f.do(t, http.MethodGet, "/book/slots?date=23-12-2030&service=1,30", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp slotsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(resp.Slots, ",") != "09:00,11:00" {
		t.Fatalf("expected 09:00,11:00, got %v", resp.Slots)
	}

	if rr := f.do(t, http.MethodGet, "/book/slots?date=2030-12-23&service=1,30", nil, false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/book/slots?date=23-12-2030&service=1,45", nil, false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a mismatched duration, got %d", rr.Code)
	}
}

func TestEditRejectsOtherBooker(t *testing.T) {
	f := newSiteFixture(t)
	at := time.Date(2030, 12, 27, 10, 0, 0, 0, time.UTC)
	id, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "other@x.com", FirstName: "Grace", LastName: "Hopper", ServiceID: 1, DateTime: at,
	}, outbox.AppointmentBooked)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	target := "/edit/" + strconv.FormatInt(id, 10)

	for _, signedIn := range []bool{true, false} {
		if rr := f.do(t, http.MethodGet, target, nil, signedIn); rr.Code != http.StatusForbidden {
			t.Fatalf("GET signedIn=%v: expected 403, got %d", signedIn, rr.Code)
		}
		if rr := f.do(t, http.MethodPost, target, bookingValues("a@x.com"), signedIn); rr.Code != http.StatusForbidden {
			t.Fatalf("POST signedIn=%v: expected 403, got %d", signedIn, rr.Code)
		}
	}
	if rr := f.do(t, http.MethodGet, "/edit/999", nil, true); rr.Code != http.StatusForbidden {
		t.Fatalf("expected the same 403 for a missing appointment, got %d", rr.Code)
	}

	stored, err := f.appts.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Email != "other@x.com" || !stored.DateTime.Equal(at) {
		t.Fatalf("appointment must be unchanged, got %+v", stored)
	}
}

func TestEditOwnAppointment(t *testing.T) {
	f := newSiteFixture(t)
	id, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", ServiceID: 1,
		DateTime: time.Date(2030, 12, 27, 10, 0, 0, 0, time.UTC),
	}, outbox.AppointmentBooked)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	target := "/edit/" + strconv.FormatInt(id, 10)

	rr := f.do(t, http.MethodGet, target, nil, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "27-12-2030 10:00") {
		t.Fatalf("expected edit form with the current date, got %d", rr.Code)
	}

	values := bookingValues("a@x.com")
	values.Set("date_time", "30-12-2030 11:00")
	rr = f.do(t, http.MethodPost, target, values, true)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	stored, _ := f.appts.Get(context.Background(), id)
	if !stored.DateTime.Equal(time.Date(2030, 12, 30, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected moved appointment, got %s", stored.DateTime)
	}
	envs := f.mailbox.Envelopes()
	if len(envs) != 1 || envs[0].Subject != "De Jure Law Firm updated booking" {
		t.Fatalf("expected one update email, got %+v", envs)
	}
}

func TestDashboardCancel(t *testing.T) {
	f := newSiteFixture(t)

	if rr := f.do(t, http.MethodGet, "/dashboard", nil, false); rr.Code != http.StatusSeeOther {
		t.Fatalf("expected anonymous redirect, got %d", rr.Code)
	}

	soon, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", ServiceID: 1,
		DateTime: testNow.Add(24 * time.Hour),
	}, outbox.AppointmentBooked)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	later, err := f.appts.Create(context.Background(), model.Appointment{
		Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace", ServiceID: 1,
		DateTime: testNow.Add(72 * time.Hour),
	}, outbox.AppointmentBooked)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	rr := f.do(t, http.MethodGet, "/dashboard", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Count(rr.Body.String(), `name="appointment_id"`) != 1 {
		t.Fatal("only the appointment outside the cutoff may offer cancellation")
	}

	if rr := f.do(t, http.MethodPost, "/dashboard", url.Values{"appointment_id": {strconv.FormatInt(soon, 10)}}, true); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 inside the cutoff, got %d", rr.Code)
	}
	rr = f.do(t, http.MethodPost, "/dashboard", url.Values{"appointment_id": {strconv.FormatInt(later, 10)}}, true)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after cancel, got %d", rr.Code)
	}
	if len(f.appts.All()) != 1 {
		t.Fatal("expected the later appointment to be deleted")
	}
	envs := f.mailbox.Envelopes()
	if len(envs) != 1 || envs[0].Subject != "De Jure Law Firm appointment canceled." {
		t.Fatalf("expected one cancel email, got %+v", envs)
	}
}

func TestDashboardSavesProfile(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/dashboard", url.Values{
		"first_name": {"Augusta"}, "last_name": {"King"}, "phone_number": {"555"},
	}, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Your details were saved.") {
		t.Fatalf("expected saved notice, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `value="Augusta"`) {
		t.Fatal("expected the page to show the new name")
	}

	rr = f.do(t, http.MethodPost, "/dashboard", url.Values{"first_name": {""}, "last_name": {"King"}}, true)
	if !strings.Contains(rr.Body.String(), "could not be saved") {
		t.Fatal("expected the not saved notice for a missing first name")
	}
}

func TestLoginSetsSession(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/accounts/login", url.Values{"username": {"ada"}, "password": {"wrong"}}, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/accounts/login", url.Values{
		"username": {"ada"}, "password": {"pass123"}, "next": {"//evil.example"},
	}, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" || !session.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", session)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the cookie to sign the visitor in, got %d", rec.Code)
	}
}

func TestForgedSessionIsAnonymous(t *testing.T) {
	f := newSiteFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d", rr.Code)
	}
}

func TestContactSendsToInboxWithCopy(t *testing.T) {
	f := newSiteFixture(t)

	rr := f.do(t, http.MethodPost, "/contact", url.Values{
		"first_name": {"Ada"}, "last_name": {"Lovelace"}, "email": {"a@x.com"},
		"subject": {"Lease"}, "message": {"Can you review my lease?"},
	}, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/contact?sent=1" {
		t.Fatalf("expected redirect after sending, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	envs := f.mailbox.Envelopes()
	if len(envs) != 1 {
		t.Fatalf("expected 1 email, got %d", len(envs))
	}
	if strings.Join(envs[0].Recipients, ",") != "office@dejure.test,a@x.com" {
		t.Fatalf("unexpected recipients %v", envs[0].Recipients)
	}

	rr = f.do(t, http.MethodPost, "/contact", url.Values{"first_name": {"Ada"}, "email": {"nope"}}, false)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid form, got %d", rr.Code)
	}
	if len(f.mailbox.Envelopes()) != 1 {
		t.Fatal("invalid contact form must not send email")
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"/hello/":            "/hello/",
		"":                   "/dashboard",
		"//evil.example":     "/dashboard",
		"https://evil.com":   "/dashboard",
		"/\\evil.example":    "/dashboard",
		"/\t/evil.example":   "/dashboard",
		"/\n/evil.example":   "/dashboard",
		"/%09/evil.example":  "/dashboard",
		"/ /evil.example":    "/dashboard",
		"javascript:alert":   "/dashboard",
		"/book?service=1,30": "/book?service=1,30",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Fatalf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
