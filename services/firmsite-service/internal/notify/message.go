package notify

import "strings"

type Kind string

const (
	KindBooked   Kind = "booked"
	KindUpdated  Kind = "updated"
	KindCanceled Kind = "canceled"
	KindContact  Kind = "contact"
)

func (k Kind) Subject(firm string) string {
	switch k {
	case KindBooked:
		return firm + " booking"
	case KindUpdated:
		return firm + " updated booking"
	case KindCanceled:
		return firm + " appointment canceled."
	case KindContact:
		return firm + " website question"
	default:
		return firm
	}
}

// Field is one named value of a notification. Order matters: the plain-text body lists the
// values in field order.
type Field struct {
	Name  string
	Value string
}

type Message struct {
	Kind   Kind
	To     []string
	Cc     []string
	Fields []Field
}

// TextBody is the plain-text alternative: field values joined by newlines. Field names are
// not included.
func (m Message) TextBody() string {
	values := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		values = append(values, f.Value)
	}
	return strings.Join(values, "\n")
}

// Values exposes the fields by name for the HTML templates.
func (m Message) Values() map[string]string {
	out := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Name] = f.Value
	}
	return out
}

func (m Message) Value(name string) string {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
