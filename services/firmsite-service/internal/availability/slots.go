package availability

import "time"

// Interval is a half-open [Start, End) span of wall-clock time.
type Interval struct {
	Start time.Time
	End   time.Time
}

func Span(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// FreeStarts filters candidate start times down to those where a booking of length duration
// begins after now and overlaps none of the busy intervals. Order is preserved.
//
// All times are expected to be in the same location (timezone).
func FreeStarts(candidates []time.Time, duration time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 {
		return nil
	}
	var free []time.Time
	for _, t := range candidates {
		if !t.After(now) {
			continue
		}
		if !Overlaps(Span(t, duration), busy) {
			free = append(free, t)
		}
	}
	return free
}

// Overlaps reports whether iv intersects any busy interval.
func Overlaps(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if iv.Start.Before(b.End) && b.Start.Before(iv.End) {
			return true
		}
	}
	return false
}
