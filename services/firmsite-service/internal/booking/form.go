package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

// DateLayout is the only accepted form date format, DD-MM-YYYY HH:MM.
const DateLayout = "02-01-2006 15:04"

// Form is the raw booking form as submitted.
type Form struct {
	Service     string
	DateTime    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Validated carries the resolved service and parsed time so nothing downstream re-parses.
type Validated struct {
	Service     model.Service
	DateTime    time.Time
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// DisplayPhone is the phone shown in notifications, "-" when none was given.
func (v Validated) DisplayPhone() string {
	if v.PhoneNumber == "" {
		return "-"
	}
	return v.PhoneNumber
}

type serviceGetter interface {
	Get(ctx context.Context, id int64) (model.Service, error)
}

// validate checks the form against the offered choices. Steps run in order and the first
// failing step decides the error.
func validate(ctx context.Context, services serviceGetter, f Form, choices []Choice) (Validated, error) {
	f = f.trimmed()

	missing := FieldErrors{}
	for name, value := range map[string]string{
		"service":    f.Service,
		"date_time":  f.DateTime,
		"email":      f.Email,
		"first_name": f.FirstName,
		"last_name":  f.LastName,
	} {
		if value == "" {
			missing[name] = "this field is required"
		}
	}
	if len(missing) > 0 {
		return Validated{}, missing
	}

	if !validEmail(f.Email) {
		return Validated{}, FieldErrors{"email": "enter a valid email address"}
	}

	choice, err := ParseServiceChoice(f.Service)
	if err != nil {
		return Validated{}, err
	}
	if !containsChoice(choices, choice) {
		return Validated{}, fmt.Errorf("%w: %d", ErrServiceNotFound, choice.ServiceID)
	}
	svc, err := services.Get(ctx, choice.ServiceID)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return Validated{}, fmt.Errorf("%w: %d", ErrServiceNotFound, choice.ServiceID)
		}
		return Validated{}, fmt.Errorf("load service %d: %w", choice.ServiceID, err)
	}
	if svc.DurationMinutes != choice.DurationMinutes {
		return Validated{}, fmt.Errorf("%w: duration %d does not match service", ErrInvalidChoice, choice.DurationMinutes)
	}

	dt, err := time.Parse(DateLayout, f.DateTime)
	if err != nil {
		return Validated{}, FieldErrors{"date_time": "use the format DD-MM-YYYY HH:MM"}
	}

	return Validated{
		Service:     svc,
		DateTime:    model.WallClock(dt),
		Email:       f.Email,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		PhoneNumber: f.PhoneNumber,
	}, nil
}

func (f Form) trimmed() Form {
	return Form{
		Service:     strings.TrimSpace(f.Service),
		DateTime:    strings.TrimSpace(f.DateTime),
		Email:       strings.TrimSpace(f.Email),
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
	}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
