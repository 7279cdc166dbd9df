package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/availability"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/outbox"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/planning"
)

const (
	// NotificationDateLayout renders dates as "Monday 02 January 2006, 15:04".
	NotificationDateLayout = "Monday 02 January 2006, 15:04"
	shortDateLayout        = "Monday 02 January, 15:04"
	calendarDateLayout     = "2006-01-02T15:04:05"
)

type Catalog interface {
	ListActive(ctx context.Context) ([]model.Service, error)
	ListByTitle(ctx context.Context, title string) ([]model.Service, error)
	Get(ctx context.Context, id int64) (model.Service, error)
}

type Plannings interface {
	ListActive(ctx context.Context) ([]model.Planning, error)
}

// Appointments persists appointments. Create, Update and Delete record an outbox event of
// the given type in the same transaction as the row change.
type Appointments interface {
	Create(ctx context.Context, a model.Appointment, eventType string) (int64, error)
	Update(ctx context.Context, a model.Appointment, eventType string) error
	Delete(ctx context.Context, a model.Appointment, eventType string) error
	Get(ctx context.Context, id int64) (model.Appointment, error)
	// ListForBooker returns appointments after the given time that are linked to userID or
	// carry email, ordered by date_time.
	ListForBooker(ctx context.Context, userID int64, email string, after time.Time) ([]model.Appointment, error)
	ListAfter(ctx context.Context, after time.Time) ([]model.Appointment, error)
}

type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Config struct {
	// RejectOverlaps turns on server-side slot checks: planning rules, future time and no
	// overlap with another appointment. Off, two bookings of one slot both succeed.
	RejectOverlaps bool
	CancelCutoff   time.Duration
	// Now returns the current site wall-clock time.
	Now func() time.Time
}

type Workflow struct {
	catalog   Catalog
	plannings Plannings
	appts     Appointments
	notifier  Notifier
	logger    *slog.Logger
	cfg       Config
}

func NewWorkflow(catalog Catalog, plannings Plannings, appts Appointments, notifier Notifier, logger *slog.Logger, cfg Config) *Workflow {
	if cfg.CancelCutoff <= 0 {
		cfg.CancelCutoff = 48 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return model.WallClock(time.Now()) }
	}
	return &Workflow{
		catalog:   catalog,
		plannings: plannings,
		appts:     appts,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

func (w *Workflow) now() time.Time {
	return model.WallClock(w.cfg.Now())
}

// Choices lists every bookable service.
func (w *Workflow) Choices(ctx context.Context) ([]Choice, error) {
	services, err := w.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	return BuildChoices(services), nil
}

// InitialForm pre-fills the contact fields from the requester's account.
func InitialForm(id model.Identity) Form {
	return Form{
		Email:       id.Email,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		PhoneNumber: id.PhoneNumber,
	}
}

// Create validates and stores a new appointment, then sends the booking confirmation. The
// appointment stays stored when the notification fails; a header error is returned with it.
func (w *Workflow) Create(ctx context.Context, id model.Identity, f Form) (model.Appointment, error) {
	choices, err := w.Choices(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	v, err := validate(ctx, w.catalog, f, choices)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := w.checkSlot(ctx, v, 0); err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		Email:       v.Email,
		FirstName:   v.FirstName,
		LastName:    v.LastName,
		PhoneNumber: v.PhoneNumber,
		ServiceID:   v.Service.ID,
		DateTime:    v.DateTime,
	}
	if id.Authenticated() {
		uid := id.UserID
		appt.UserID = &uid
	}
	msg := bookingMessage(notify.KindBooked, v)

	appt.ID, err = w.appts.Create(ctx, appt, outbox.AppointmentBooked)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("store appointment: %w", err)
	}
	w.logger.InfoContext(ctx, "appointment booked", "appointment_id", appt.ID, "service_id", appt.ServiceID)

	return appt, w.deliver(ctx, msg, appt.ID)
}

type EditPage struct {
	Appointment model.Appointment
	Service     model.Service
	Choices     []Choice
	Form        Form
}

// EditView loads an appointment for editing by its booker.
func (w *Workflow) EditView(ctx context.Context, id model.Identity, appointmentID int64) (EditPage, error) {
	appt, err := w.owned(ctx, id, appointmentID)
	if err != nil {
		return EditPage{}, err
	}
	current, choices, err := w.editChoices(ctx, appt)
	if err != nil {
		return EditPage{}, err
	}
	form := InitialForm(id)
	form.Service = ChoiceFor(current).Value.Token()
	form.DateTime = appt.DateTime.Format(DateLayout)
	return EditPage{Appointment: appt, Service: current, Choices: choices, Form: form}, nil
}

// Edit overwrites the booker's appointment in place and sends the update notification.
func (w *Workflow) Edit(ctx context.Context, id model.Identity, appointmentID int64, f Form) (model.Appointment, error) {
	appt, err := w.owned(ctx, id, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	_, choices, err := w.editChoices(ctx, appt)
	if err != nil {
		return model.Appointment{}, err
	}
	v, err := validate(ctx, w.catalog, f, choices)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := w.checkSlot(ctx, v, appt.ID); err != nil {
		return model.Appointment{}, err
	}

	appt.Email = v.Email
	appt.FirstName = v.FirstName
	appt.LastName = v.LastName
	appt.PhoneNumber = v.PhoneNumber
	appt.ServiceID = v.Service.ID
	appt.DateTime = v.DateTime
	msg := bookingMessage(notify.KindUpdated, v)

	if err := w.appts.Update(ctx, appt, outbox.AppointmentUpdated); err != nil {
		return model.Appointment{}, fmt.Errorf("update appointment %d: %w", appt.ID, err)
	}
	w.logger.InfoContext(ctx, "appointment updated", "appointment_id", appt.ID)

	return appt, w.deliver(ctx, msg, appt.ID)
}

// Cancel deletes the booker's appointment when it starts after the cancellation cutoff.
func (w *Workflow) Cancel(ctx context.Context, id model.Identity, appointmentID int64) error {
	appt, err := w.owned(ctx, id, appointmentID)
	if err != nil {
		return err
	}
	if !w.Cancellable(appt.DateTime) {
		return ErrNotCancellable
	}
	svc, err := w.catalog.Get(ctx, appt.ServiceID)
	if err != nil {
		return fmt.Errorf("load service %d: %w", appt.ServiceID, err)
	}

	if err := w.appts.Delete(ctx, appt, outbox.AppointmentCancelled); err != nil {
		return fmt.Errorf("delete appointment %d: %w", appt.ID, err)
	}
	w.logger.InfoContext(ctx, "appointment canceled", "appointment_id", appt.ID)

	msg := notify.Message{
		Kind: notify.KindCanceled,
		To:   []string{appt.Email},
		Fields: []notify.Field{
			{Name: "service", Value: svc.Title},
			{Name: "date", Value: appt.DateTime.Format(NotificationDateLayout)},
			{Name: "first_name", Value: appt.FirstName},
			{Name: "last_name", Value: appt.LastName},
			{Name: "email", Value: appt.Email},
		},
	}
	return w.deliver(ctx, msg, appt.ID)
}

// Cancellable reports whether an appointment at t is still later than now plus the cutoff.
func (w *Workflow) Cancellable(t time.Time) bool {
	return model.WallClock(t).After(w.now().Add(w.cfg.CancelCutoff))
}

type DashboardItem struct {
	Appointment     model.Appointment
	ServiceTitle    string
	DurationMinutes int
	Date            string
	DateShort       string
	Cancellable     bool
}

// Dashboard lists the requester's appointments from yesterday onwards: the ones linked to the
// account plus the ones booked with the account email.
func (w *Workflow) Dashboard(ctx context.Context, id model.Identity) ([]DashboardItem, error) {
	if !id.Authenticated() {
		return nil, ErrForbidden
	}
	appts, err := w.appts.ListForBooker(ctx, id.UserID, id.Email, w.now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	appts = dedupe(appts)

	services := map[int64]model.Service{}
	items := make([]DashboardItem, 0, len(appts))
	for _, a := range appts {
		svc, err := w.service(ctx, services, a.ServiceID)
		if err != nil {
			return nil, err
		}
		items = append(items, DashboardItem{
			Appointment:     a,
			ServiceTitle:    svc.Title,
			DurationMinutes: svc.DurationMinutes,
			Date:            a.DateTime.Format(NotificationDateLayout),
			DateShort:       a.DateTime.Format(shortDateLayout),
			Cancellable:     w.Cancellable(a.DateTime),
		})
	}
	return items, nil
}

type CalendarEntry struct {
	DateTime string `json:"date_time"`
	Duration int    `json:"duration"`
}

type PlanningEntry struct {
	Title            string `json:"title"`
	AllowTimes       string `json:"allow_times"`
	DisabledDates    string `json:"disabled_dates"`
	DisabledWeekdays string `json:"disabled_weekdays"`
}

// Calendar is the data behind the client-side booking calendar. It carries no personal data.
type Calendar struct {
	Plannings    []PlanningEntry `json:"planning"`
	Appointments []CalendarEntry `json:"appointments"`
}

func (w *Workflow) Calendar(ctx context.Context) (Calendar, error) {
	ps, err := w.plannings.ListActive(ctx)
	if err != nil {
		return Calendar{}, fmt.Errorf("list plannings: %w", err)
	}
	appts, err := w.appts.ListAfter(ctx, w.now().Add(-24*time.Hour))
	if err != nil {
		return Calendar{}, fmt.Errorf("list appointments: %w", err)
	}

	cal := Calendar{
		Plannings:    make([]PlanningEntry, 0, len(ps)),
		Appointments: make([]CalendarEntry, 0, len(appts)),
	}
	for _, p := range ps {
		cal.Plannings = append(cal.Plannings, PlanningEntry{
			Title:            p.Title,
			AllowTimes:       p.AllowTimes,
			DisabledDates:    p.DisabledDates,
			DisabledWeekdays: p.DisabledWeekdays,
		})
	}
	services := map[int64]model.Service{}
	for _, a := range appts {
		svc, err := w.service(ctx, services, a.ServiceID)
		if err != nil {
			return Calendar{}, err
		}
		cal.Appointments = append(cal.Appointments, CalendarEntry{
			DateTime: a.DateTime.Format(calendarDateLayout),
			Duration: svc.DurationMinutes,
		})
	}
	return cal, nil
}

// FreeSlots returns the start times on day that the planning allows, that lie in the future and
// where the chosen service does not overlap an existing appointment.
func (w *Workflow) FreeSlots(ctx context.Context, day time.Time, choice ServiceChoice) ([]time.Time, error) {
	svc, err := w.catalog.Get(ctx, choice.ServiceID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, fmt.Errorf("%w: %d", ErrServiceNotFound, choice.ServiceID)
		}
		return nil, fmt.Errorf("load service %d: %w", choice.ServiceID, err)
	}
	if !svc.Active || svc.DurationMinutes != choice.DurationMinutes {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChoice, choice.Token())
	}
	rules, err := w.rules(ctx)
	if err != nil {
		return nil, err
	}
	day = model.WallClock(day)
	busy, err := w.busy(ctx, day.Add(-24*time.Hour), 0)
	if err != nil {
		return nil, err
	}
	return availability.FreeStarts(rules.StartsOn(day), svc.Duration(), busy, w.now()), nil
}

func (w *Workflow) checkSlot(ctx context.Context, v Validated, exclude int64) error {
	if !w.cfg.RejectOverlaps {
		return nil
	}
	rules, err := w.rules(ctx)
	if err != nil {
		return err
	}
	if !rules.Allows(v.DateTime) {
		return fmt.Errorf("%w: outside the booking calendar", ErrSlotUnavailable)
	}
	if !v.DateTime.After(w.now()) {
		return fmt.Errorf("%w: in the past", ErrSlotUnavailable)
	}
	busy, err := w.busy(ctx, v.DateTime.Add(-24*time.Hour), exclude)
	if err != nil {
		return err
	}
	if availability.Overlaps(availability.Span(v.DateTime, v.Service.Duration()), busy) {
		return fmt.Errorf("%w: overlaps another appointment", ErrSlotUnavailable)
	}
	return nil
}

func (w *Workflow) rules(ctx context.Context) (planning.Rules, error) {
	ps, err := w.plannings.ListActive(ctx)
	if err != nil {
		return planning.Rules{}, fmt.Errorf("list plannings: %w", err)
	}
	return planning.Compile(ps)
}

func (w *Workflow) busy(ctx context.Context, after time.Time, exclude int64) ([]availability.Interval, error) {
	appts, err := w.appts.ListAfter(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	services := map[int64]model.Service{}
	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		if a.ID == exclude {
			continue
		}
		svc, err := w.service(ctx, services, a.ServiceID)
		if err != nil {
			return nil, err
		}
		busy = append(busy, availability.Span(a.DateTime, svc.Duration()))
	}
	return busy, nil
}

func (w *Workflow) owned(ctx context.Context, id model.Identity, appointmentID int64) (model.Appointment, error) {
	appt, err := w.appts.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, fmt.Errorf("load appointment %d: %w", appointmentID, err)
	}
	if id.Email == "" || id.Email != appt.Email {
		return model.Appointment{}, ErrForbidden
	}
	return appt, nil
}

// editChoices limits an edit to services sharing the current service's title.
func (w *Workflow) editChoices(ctx context.Context, appt model.Appointment) (model.Service, []Choice, error) {
	current, err := w.catalog.Get(ctx, appt.ServiceID)
	if err != nil {
		return model.Service{}, nil, fmt.Errorf("load service %d: %w", appt.ServiceID, err)
	}
	same, err := w.catalog.ListByTitle(ctx, current.Title)
	if err != nil {
		return model.Service{}, nil, fmt.Errorf("list services %q: %w", current.Title, err)
	}
	return current, BuildChoices(same), nil
}

func (w *Workflow) service(ctx context.Context, cache map[int64]model.Service, id int64) (model.Service, error) {
	if svc, ok := cache[id]; ok {
		return svc, nil
	}
	svc, err := w.catalog.Get(ctx, id)
	if err != nil {
		return model.Service{}, fmt.Errorf("load service %d: %w", id, err)
	}
	cache[id] = svc
	return svc, nil
}

// deliver sends msg after the row is stored. Any failure reaches the caller; the stored
// appointment is kept either way.
func (w *Workflow) deliver(ctx context.Context, msg notify.Message, appointmentID int64) error {
	if err := w.notifier.Send(ctx, msg); err != nil {
		w.logger.ErrorContext(ctx, "notification not delivered",
			"appointment_id", appointmentID,
			"kind", string(msg.Kind),
			"err", err,
		)
		return fmt.Errorf("notify appointment %d: %w", appointmentID, err)
	}
	return nil
}

func bookingMessage(kind notify.Kind, v Validated) notify.Message {
	return notify.Message{
		Kind: kind,
		To:   []string{v.Email},
		Fields: []notify.Field{
			{Name: "service", Value: v.Service.Title},
			{Name: "date", Value: v.DateTime.Format(NotificationDateLayout)},
			{Name: "first_name", Value: v.FirstName},
			{Name: "last_name", Value: v.LastName},
			{Name: "email", Value: v.Email},
			{Name: "phone", Value: v.DisplayPhone()},
		},
	}
}

func dedupe(appts []model.Appointment) []model.Appointment {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].DateTime.Equal(appts[j].DateTime) {
			return appts[i].ID < appts[j].ID
		}
		return appts[i].DateTime.Before(appts[j].DateTime)
	})
	out := appts[:0]
	seen := map[int64]struct{}{}
	for _, a := range appts {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}
