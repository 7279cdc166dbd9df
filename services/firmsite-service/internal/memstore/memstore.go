// Package memstore holds in-memory stores with the same contracts as the Postgres
// repositories. Tests use them to drive the workflow and the HTTP layer without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/planning"
)

type Catalog struct {
	mu       sync.Mutex
	services []model.Service
}

func NewCatalog(services ...model.Service) *Catalog {
	c := &Catalog{}
	for _, s := range services {
		c.Save(s)
	}
	return c
}

// Save inserts or replaces by id; a zero id gets the next free one.
func (c *Catalog) Save(s model.Service) model.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.ID == 0 {
		s.ID = int64(len(c.services) + 1)
	}
	for i := range c.services {
		if c.services[i].ID == s.ID {
			c.services[i] = s
			return s
		}
	}
	c.services = append(c.services, s)
	return s
}

func (c *Catalog) list(keep func(model.Service) bool) []model.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Service
	for _, s := range c.services {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (c *Catalog) ListActive(context.Context) ([]model.Service, error) {
	return c.list(func(s model.Service) bool { return s.Active }), nil
}

func (c *Catalog) ListDisplayed(context.Context) ([]model.Service, error) {
	return c.list(func(s model.Service) bool { return s.Display }), nil
}

func (c *Catalog) ListByTitle(_ context.Context, title string) ([]model.Service, error) {
	return c.list(func(s model.Service) bool { return s.Title == title }), nil
}

func (c *Catalog) Get(_ context.Context, id int64) (model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.services {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Service{}, fmt.Errorf("service %d: %w", id, model.ErrNoRecord)
}

type Plannings struct {
	mu    sync.Mutex
	items []model.Planning
}

// Save validates like the Postgres repository: an invalid planning is never stored.
func (p *Plannings) Save(_ context.Context, pl model.Planning) (model.Planning, error) {
	if err := planning.Validate(pl); err != nil {
		return model.Planning{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].Title == pl.Title {
			pl.ID = p.items[i].ID
			p.items[i] = pl
			return pl, nil
		}
	}
	pl.ID = int64(len(p.items) + 1)
	p.items = append(p.items, pl)
	return pl, nil
}

func (p *Plannings) ListActive(context.Context) ([]model.Planning, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Planning
	for _, pl := range p.items {
		if pl.Active {
			out = append(out, pl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (p *Plannings) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

type Appointments struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Appointment
	events []string
}

func NewAppointments() *Appointments {
	return &Appointments{rows: map[int64]model.Appointment{}}
}

func (s *Appointments) Create(_ context.Context, a model.Appointment, eventType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	a.DateTime = model.WallClock(a.DateTime)
	s.rows[a.ID] = a
	s.events = append(s.events, eventType)
	return a.ID, nil
}

func (s *Appointments) Update(_ context.Context, a model.Appointment, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[a.ID]; !ok {
		return fmt.Errorf("appointment %d: %w", a.ID, model.ErrNoRecord)
	}
	a.DateTime = model.WallClock(a.DateTime)
	s.rows[a.ID] = a
	s.events = append(s.events, eventType)
	return nil
}

func (s *Appointments) Delete(_ context.Context, a model.Appointment, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[a.ID]; !ok {
		return fmt.Errorf("appointment %d: %w", a.ID, model.ErrNoRecord)
	}
	delete(s.rows, a.ID)
	s.events = append(s.events, eventType)
	return nil
}

func (s *Appointments) Get(_ context.Context, id int64) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return model.Appointment{}, fmt.Errorf("appointment %d: %w", id, model.ErrNoRecord)
	}
	return a, nil
}

func (s *Appointments) ListForBooker(_ context.Context, userID int64, email string, after time.Time) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool {
		linked := userID != 0 && a.UserID != nil && *a.UserID == userID
		return (linked || a.Email == email) && a.DateTime.After(after)
	}), nil
}

func (s *Appointments) ListAfter(_ context.Context, after time.Time) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool { return a.DateTime.After(after) }), nil
}

func (s *Appointments) filter(keep func(model.Appointment) bool) []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out
}

// All returns every stored appointment ordered by id.
func (s *Appointments) All() []model.Appointment {
	all := s.filter(func(model.Appointment) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Events returns the outbox event types recorded so far, in order.
func (s *Appointments) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// Mailbox is a notify.Transport that keeps every envelope.
type Mailbox struct {
	mu        sync.Mutex
	envelopes []notify.Envelope
	Err       error
}

func (m *Mailbox) Deliver(_ context.Context, env notify.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.envelopes = append(m.envelopes, env)
	return nil
}

func (m *Mailbox) Envelopes() []notify.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Envelope(nil), m.envelopes...)
}
