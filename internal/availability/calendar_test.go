package availability

import (
	"testing"
	"time"

	"reservio/internal/resources"
	"reservio/internal/timerange"
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func mondayAt(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func mondaySpan() timerange.Range {
	return timerange.MustNew(monday, monday.AddDate(0, 0, 1))
}

func window(weekday int, start, end string) resources.AvailabilityWindow {
	return resources.AvailabilityWindow{Weekday: weekday, StartTime: start, EndTime: end}
}

func TestFreeIntervalsExpandsWeeklyWindows(t *testing.T) {
	windows := []resources.AvailabilityWindow{window(1, "09:00", "17:00")}

	got := FreeIntervals(time.UTC, windows, nil, nil, mondaySpan())

	want := []timerange.Range{timerange.MustNew(mondayAt(9, 0), mondayAt(17, 0))}
	assertRanges(t, got, want)
}

func TestFreeIntervalsSkipsNonMatchingWeekdays(t *testing.T) {
	// Tuesday window, Monday span.
	windows := []resources.AvailabilityWindow{window(2, "09:00", "17:00")}

	got := FreeIntervals(time.UTC, windows, nil, nil, mondaySpan())
	if len(got) != 0 {
		t.Fatalf("expected no free intervals, got %v", got)
	}
}

func TestFreeIntervalsSubtractsExceptionsAndBookings(t *testing.T) {
	windows := []resources.AvailabilityWindow{window(1, "09:00", "17:00")}
	exceptions := []resources.AvailabilityException{
		{StartTime: mondayAt(12, 0), EndTime: mondayAt(13, 0), Reason: "maintenance"},
	}
	booked := []timerange.Range{timerange.MustNew(mondayAt(15, 0), mondayAt(15, 30))}

	got := FreeIntervals(time.UTC, windows, exceptions, booked, mondaySpan())

	want := []timerange.Range{
		timerange.MustNew(mondayAt(9, 0), mondayAt(12, 0)),
		timerange.MustNew(mondayAt(13, 0), mondayAt(15, 0)),
		timerange.MustNew(mondayAt(15, 30), mondayAt(17, 0)),
	}
	assertRanges(t, got, want)
}

func TestFreeIntervalsMergesSplitShifts(t *testing.T) {
	// Two windows that touch at 13:00 merge into one interval.
	windows := []resources.AvailabilityWindow{
		window(1, "09:00", "13:00"),
		window(1, "13:00", "17:00"),
	}

	got := FreeIntervals(time.UTC, windows, nil, nil, mondaySpan())
	want := []timerange.Range{timerange.MustNew(mondayAt(9, 0), mondayAt(17, 0))}
	assertRanges(t, got, want)
}

func TestFreeIntervalsIsIdempotent(t *testing.T) {
	windows := []resources.AvailabilityWindow{
		window(1, "09:00", "12:00"),
		window(1, "14:00", "17:00"),
	}
	exceptions := []resources.AvailabilityException{
		{StartTime: mondayAt(10, 0), EndTime: mondayAt(10, 30)},
	}
	booked := []timerange.Range{timerange.MustNew(mondayAt(15, 0), mondayAt(16, 0))}

	first := FreeIntervals(time.UTC, windows, exceptions, booked, mondaySpan())
	second := FreeIntervals(time.UTC, windows, exceptions, booked, mondaySpan())

	assertRanges(t, second, first)
}

func TestFindSlotsScenario(t *testing.T) {
	// Monday 09:00-17:00 with a 12:00-13:00 exception and hour-long
	// slots yields 7 slots, none covering the exception.
	windows := []resources.AvailabilityWindow{window(1, "09:00", "17:00")}
	exceptions := []resources.AvailabilityException{
		{StartTime: mondayAt(12, 0), EndTime: mondayAt(13, 0)},
	}

	free := FreeIntervals(time.UTC, windows, exceptions, nil, mondaySpan())
	slots := FindSlots(free, time.Hour)

	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d: %v", len(slots), slots)
	}

	blocked := timerange.MustNew(mondayAt(12, 0), mondayAt(13, 0))
	for _, slot := range slots {
		if slot.Duration() != time.Hour {
			t.Errorf("slot %s is not exactly one hour", slot)
		}
		if slot.Overlaps(blocked) {
			t.Errorf("slot %s overlaps the exception", slot)
		}
	}

	if !slots[0].Equal(timerange.MustNew(mondayAt(9, 0), mondayAt(10, 0))) {
		t.Errorf("first slot = %s, want [09:00, 10:00)", slots[0])
	}
	if !slots[6].Equal(timerange.MustNew(mondayAt(16, 0), mondayAt(17, 0))) {
		t.Errorf("last slot = %s, want [16:00, 17:00)", slots[6])
	}
}

func TestFindSlotsDiscardsShortRemainders(t *testing.T) {
	free := []timerange.Range{timerange.MustNew(mondayAt(9, 0), mondayAt(10, 30))}

	slots := FindSlots(free, time.Hour)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %v", len(slots), slots)
	}
	if !slots[0].Equal(timerange.MustNew(mondayAt(9, 0), mondayAt(10, 0))) {
		t.Fatalf("slot = %s, want [09:00, 10:00)", slots[0])
	}
}

func TestFindSlotsStayWithinOneInterval(t *testing.T) {
	free := []timerange.Range{
		timerange.MustNew(mondayAt(9, 0), mondayAt(10, 0)),
		timerange.MustNew(mondayAt(10, 30), mondayAt(11, 30)),
	}

	slots := FindSlots(free, 45*time.Minute)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	for _, slot := range slots {
		inOne := false
		for _, interval := range free {
			if interval.ContainsRange(slot) {
				inOne = true
			}
		}
		if !inOne {
			t.Errorf("slot %s spans interval boundaries", slot)
		}
	}
}

func TestFreeIntervalsRespectsResourceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	windows := []resources.AvailabilityWindow{window(1, "09:00", "17:00")}
	// Span the Monday in New York local time.
	nyMonday := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	span := timerange.MustNew(nyMonday, nyMonday.AddDate(0, 0, 1))

	got := FreeIntervals(loc, windows, nil, nil, span)
	want := []timerange.Range{
		timerange.MustNew(
			time.Date(2025, 3, 10, 9, 0, 0, 0, loc),
			time.Date(2025, 3, 10, 17, 0, 0, 0, loc),
		),
	}
	assertRanges(t, got, want)
}

func assertRanges(t *testing.T, got, want []timerange.Range) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d ranges, want %d: got=%v want=%v", len(got), len(want), got, want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("range %d = %s, want %s", i, got[i], want[i])
		}
	}
}
