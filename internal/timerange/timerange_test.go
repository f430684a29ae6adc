package timerange

import (
	"errors"
	"testing"
	"time"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func rng(sh, sm, eh, em int) Range {
	return MustNew(at(sh, sm), at(eh, em))
}

func TestNewRejectsInvalid(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"start equals end", at(10, 0), at(10, 0)},
		{"start after end", at(11, 0), at(10, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.start, tc.end); !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint", rng(9, 0, 10, 0), rng(11, 0, 12, 0), false},
		{"touching edges do not overlap", rng(9, 0, 10, 0), rng(10, 0, 11, 0), false},
		{"partial overlap", rng(9, 0, 10, 30), rng(10, 0, 11, 0), true},
		{"contained", rng(9, 0, 12, 0), rng(10, 0, 11, 0), true},
		{"identical", rng(9, 0, 10, 0), rng(9, 0, 10, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("b.Overlaps(a) = %v, want %v (must be symmetric)", got, tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	r := rng(9, 0, 10, 0)

	if !r.Contains(at(9, 0)) {
		t.Error("start instant should be contained")
	}
	if !r.Contains(at(9, 59)) {
		t.Error("interior instant should be contained")
	}
	if r.Contains(at(10, 0)) {
		t.Error("end instant should not be contained (half-open)")
	}
	if r.Contains(at(8, 59)) {
		t.Error("instant before start should not be contained")
	}
}

func TestIntersect(t *testing.T) {
	a := rng(9, 0, 11, 0)
	b := rng(10, 0, 12, 0)

	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("expected an intersection")
	}
	if !got.Equal(rng(10, 0, 11, 0)) {
		t.Fatalf("intersection = %s, want [10:00, 11:00)", got)
	}

	if _, ok := a.Intersect(rng(11, 0, 12, 0)); ok {
		t.Error("touching ranges must not intersect")
	}
}

func TestSubtract(t *testing.T) {
	base := rng(9, 0, 17, 0)

	cases := []struct {
		name string
		cut  Range
		want []Range
	}{
		{"disjoint leaves base", rng(18, 0, 19, 0), []Range{base}},
		{"full cover leaves nothing", rng(8, 0, 18, 0), nil},
		{"interior splits in two", rng(12, 0, 13, 0), []Range{rng(9, 0, 12, 0), rng(13, 0, 17, 0)}},
		{"leading cut trims start", rng(8, 0, 10, 0), []Range{rng(10, 0, 17, 0)}},
		{"trailing cut trims end", rng(16, 0, 18, 0), []Range{rng(9, 0, 16, 0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := base.Subtract(tc.cut)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d pieces, want %d: %v", len(got), len(tc.want), got)
			}
			for i := range got {
				if !got[i].Equal(tc.want[i]) {
					t.Fatalf("piece %d = %s, want %s", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestMergeCoalescesTouchingAndOverlapping(t *testing.T) {
	in := []Range{
		rng(13, 0, 14, 0),
		rng(9, 0, 10, 0),
		rng(10, 0, 11, 0),
		rng(10, 30, 12, 0),
	}

	got := Merge(in)
	want := []Range{rng(9, 0, 12, 0), rng(13, 0, 14, 0)}
	if len(got) != len(want) {
		t.Fatalf("got %d ranges, want %d: %v", len(got), len(want), got)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("range %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSubtractAll(t *testing.T) {
	base := []Range{rng(9, 0, 17, 0)}
	cuts := []Range{rng(12, 0, 13, 0), rng(15, 0, 15, 30)}

	got := SubtractAll(base, cuts)
	want := []Range{rng(9, 0, 12, 0), rng(13, 0, 15, 0), rng(15, 30, 17, 0)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("range %d = %s, want %s", i, got[i], want[i])
		}
	}
}
