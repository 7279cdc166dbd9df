package booking

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidChoice   = errors.New("invalid service choice")
	ErrForbidden       = errors.New("appointment belongs to another booker")
	ErrNotFound        = errors.New("appointment not found")
	ErrNotCancellable  = errors.New("appointment can no longer be canceled")
	ErrSlotUnavailable = errors.New("requested time is not available")
)

// FieldErrors maps form field names to a short message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e[name])
	}
	return "invalid booking form: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err rejects the submitted form rather than failing the request.
func IsValidation(err error) bool {
	var fe FieldErrors
	return errors.As(err, &fe) ||
		errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrSlotUnavailable)
}
