// Package planning validates the booking calendar configuration and compiles the active
// plannings into rules the slot finder and the strict booking mode can query.
package planning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
)

const (
	FieldTitle            = "title"
	FieldAllowTimes       = "allow_times"
	FieldDisabledDates    = "disabled_dates"
	FieldDisabledWeekdays = "disabled_weekdays"
)

const (
	timeItem = `(?:[01]\d|2[0-3]):[0-5]\d(?::[0-5]\d)?`
	dateItem = `\s*(?:0[1-9]|[12]\d|3[01])\.(?:0[1-9]|1[0-2])\.\d{4}\s*`
)

var (
	allowTimesPattern       = regexp.MustCompile(`^` + timeItem + `(?:,` + timeItem + `)*$`)
	disabledDatesPattern    = regexp.MustCompile(`^` + dateItem + `(?:,` + dateItem + `)*$`)
	disabledWeekdaysPattern = regexp.MustCompile(`^[0-6](?:,[0-6])*$`)
)

var formatHints = map[string]string{
	FieldTitle:            "title is required",
	FieldAllowTimes:       "use comma separated times in HH:MM or HH:MM:SS format without spaces, e.g. 09:00,13:30",
	FieldDisabledDates:    "use comma separated dates in DD.MM.YYYY format, e.g. 24.12.2030, 31.12.2030",
	FieldDisabledWeekdays: "use comma separated weekday numbers 0-6 (0 is Sunday) without spaces, e.g. 0,6",
}

// ValidationError lists every malformed field with the format it expects.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid planning: " + strings.Join(parts, "; ")
}

// Validate checks each field against its grammar. Empty list fields mean "none" and pass.
// Checks are purely lexical; fields are not compared with each other.
func Validate(p model.Planning) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields[FieldTitle] = formatHints[FieldTitle]
	}
	if p.AllowTimes != "" && !allowTimesPattern.MatchString(p.AllowTimes) {
		fields[FieldAllowTimes] = formatHints[FieldAllowTimes]
	}
	if strings.TrimSpace(p.DisabledDates) != "" && !disabledDatesPattern.MatchString(p.DisabledDates) {
		fields[FieldDisabledDates] = formatHints[FieldDisabledDates]
	}
	if p.DisabledWeekdays != "" && !disabledWeekdaysPattern.MatchString(p.DisabledWeekdays) {
		fields[FieldDisabledWeekdays] = formatHints[FieldDisabledWeekdays]
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Rules is the merged view of every active planning.
type Rules struct {
	times    []time.Duration
	dates    map[string]struct{}
	weekdays map[time.Weekday]struct{}
}

const dateKeyLayout = "02.01.2006"

// Compile merges the active plannings. Inactive rows are ignored; an invalid active row is
// an error since rows are validated before they are stored.
func Compile(ps []model.Planning) (Rules, error) {
	rules := Rules{
		dates:    map[string]struct{}{},
		weekdays: map[time.Weekday]struct{}{},
	}
	seen := map[time.Duration]struct{}{}
	for _, p := range ps {
		if !p.Active {
			continue
		}
		if err := Validate(p); err != nil {
			return Rules{}, fmt.Errorf("planning %q: %w", p.Title, err)
		}
		for _, item := range splitList(p.AllowTimes) {
			offset, err := parseClock(item)
			if err != nil {
				return Rules{}, fmt.Errorf("planning %q: %w", p.Title, err)
			}
			if _, ok := seen[offset]; !ok {
				seen[offset] = struct{}{}
				rules.times = append(rules.times, offset)
			}
		}
		for _, item := range splitList(p.DisabledDates) {
			rules.dates[item] = struct{}{}
		}
		for _, item := range splitList(p.DisabledWeekdays) {
			n, _ := strconv.Atoi(item)
			rules.weekdays[time.Weekday(n)] = struct{}{}
		}
	}
	sort.Slice(rules.times, func(i, j int) bool { return rules.times[i] < rules.times[j] })
	return rules, nil
}

// DayDisabled reports whether day is a blacked-out date or a disabled weekday.
func (r Rules) DayDisabled(day time.Time) bool {
	if _, ok := r.weekdays[day.Weekday()]; ok {
		return true
	}
	_, ok := r.dates[day.Format(dateKeyLayout)]
	return ok
}

// StartsOn returns the allowed start times on day, in order. Nothing is returned for a
// disabled day.
func (r Rules) StartsOn(day time.Time) []time.Time {
	if r.DayDisabled(day) {
		return nil
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	starts := make([]time.Time, 0, len(r.times))
	for _, offset := range r.times {
		starts = append(starts, midnight.Add(offset))
	}
	return starts
}

// Allows reports whether t falls exactly on an allowed time of an enabled day.
func (r Rules) Allows(t time.Time) bool {
	for _, start := range r.StartsOn(t) {
		if start.Equal(t) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseClock(item string) (time.Duration, error) {
	parts := strings.Split(item, ":")
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || i >= len(units) {
			return 0, fmt.Errorf("invalid clock time %q", item)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}
