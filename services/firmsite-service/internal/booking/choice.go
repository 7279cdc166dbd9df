package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

// ServiceChoice is the service picked on the booking form together with its duration, so the
// client calendar can size a slot without a second lookup.
type ServiceChoice struct {
	ServiceID       int64
	DurationMinutes int
}

// Token is the form value of the choice, "id,duration".
func (c ServiceChoice) Token() string {
	return strconv.FormatInt(c.ServiceID, 10) + "," + strconv.Itoa(c.DurationMinutes)
}

func ParseServiceChoice(token string) (ServiceChoice, error) {
	idPart, durPart, ok := strings.Cut(strings.TrimSpace(token), ",")
	if !ok {
		return ServiceChoice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil || id <= 0 {
		return ServiceChoice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	dur, err := strconv.Atoi(strings.TrimSpace(durPart))
	if err != nil || dur <= 0 {
		return ServiceChoice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	return ServiceChoice{ServiceID: id, DurationMinutes: dur}, nil
}

type Choice struct {
	Value ServiceChoice
	Label string
}

func ChoiceFor(s model.Service) Choice {
	return Choice{
		Value: ServiceChoice{ServiceID: s.ID, DurationMinutes: s.DurationMinutes},
		Label: fmt.Sprintf("%s - %d min - €%s", s.Title, s.DurationMinutes, s.Price.StringFixed(2)),
	}
}

// BuildChoices returns the closed set of selectable services, in the order given.
func BuildChoices(services []model.Service) []Choice {
	choices := make([]Choice, 0, len(services))
	for _, s := range services {
		choices = append(choices, ChoiceFor(s))
	}
	return choices
}

func containsChoice(choices []Choice, c ServiceChoice) bool {
	for _, ch := range choices {
		if ch.Value == c {
			return true
		}
	}
	return false
}
