// Package availability computes free intervals and bookable slots for a
// resource. Everything in here is pure: the same inputs always produce
// the same output, so callers may re-run it inside a serialized
// critical section or cache it freely.
package availability

import (
	"time"

	"reservio/internal/resources"
	"reservio/internal/timerange"
)

// FreeIntervals expands the recurring windows into concrete intervals
// across span using the given location, then subtracts every exception
// and every booked range. The result is sorted by start with touching
// intervals merged.
func FreeIntervals(
	loc *time.Location,
	windows []resources.AvailabilityWindow,
	exceptions []resources.AvailabilityException,
	booked []timerange.Range,
	span timerange.Range,
) []timerange.Range {
	if loc == nil {
		loc = time.UTC
	}

	byWeekday := make(map[int][]resources.AvailabilityWindow)
	for _, w := range windows {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}

	var open []timerange.Range
	for day := startOfDay(span.Start.In(loc)); day.Before(span.End); day = day.AddDate(0, 0, 1) {
		for _, w := range byWeekday[isoWeekday(day)] {
			concrete, ok := windowOnDay(w, day, loc)
			if !ok {
				continue
			}
			clamped, ok := concrete.Intersect(span)
			if !ok {
				continue
			}
			open = append(open, clamped)
		}
	}

	open = timerange.Merge(open)

	var cuts []timerange.Range
	for _, exc := range exceptions {
		if exc.EndTime.After(exc.StartTime) {
			cuts = append(cuts, timerange.Range{Start: exc.StartTime, End: exc.EndTime})
		}
	}
	cuts = append(cuts, booked...)

	return timerange.Merge(timerange.SubtractAll(open, cuts))
}

// FindSlots greedily walks the free intervals, emitting non-overlapping
// slots of exactly duration from the start of each interval and
// discarding any remainder shorter than duration.
func FindSlots(free []timerange.Range, duration time.Duration) []timerange.Range {
	if duration <= 0 {
		return nil
	}

	var slots []timerange.Range
	for _, interval := range free {
		for cur := interval.Start; !cur.Add(duration).After(interval.End); cur = cur.Add(duration) {
			slots = append(slots, timerange.Range{Start: cur, End: cur.Add(duration)})
		}
	}
	return slots
}

// windowOnDay materializes a recurring window on a concrete day in loc.
// Window times were validated at creation, so unparseable values are
// skipped rather than reported.
func windowOnDay(w resources.AvailabilityWindow, day time.Time, loc *time.Location) (timerange.Range, bool) {
	start, err := time.Parse("15:04", w.StartTime)
	if err != nil {
		return timerange.Range{}, false
	}
	end, err := time.Parse("15:04", w.EndTime)
	if err != nil {
		return timerange.Range{}, false
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	to := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, loc)
	if !from.Before(to) {
		return timerange.Range{}, false
	}
	return timerange.Range{Start: from, End: to}, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isoWeekday maps time.Weekday (Sunday = 0) to ISO numbering where
// Monday = 1 and Sunday = 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
