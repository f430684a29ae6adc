package timerange

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidRange is returned when a range would not satisfy start < end.
var ErrInvalidRange = errors.New("invalid time range: start must be before end")

// Range is an immutable half-open interval [Start, End). Two ranges that
// merely touch do not overlap.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds a Range, rejecting anything with start >= end.
func New(start, end time.Time) (Range, error) {
	if !start.Before(end) {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: start, End: end}, nil
}

// MustNew is New for literals in tests and fixtures; it panics on a
// malformed range.
func MustNew(start, end time.Time) Range {
	r, err := New(start, end)
	if err != nil {
		panic(fmt.Sprintf("timerange: %v (%s, %s)", err, start, end))
	}
	return r
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// IsZero reports whether the range is the zero value.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Overlaps reports whether r and other share any instant.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether the instant t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Intersect returns the shared interval of r and other, if any.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return Range{Start: start, End: end}, true
}

// Subtract removes other from r and returns what is left: the whole of r
// when they do not overlap, nothing when other covers r, and two pieces
// when other is strictly interior.
func (r Range) Subtract(other Range) []Range {
	if !r.Overlaps(other) {
		return []Range{r}
	}

	var out []Range
	if r.Start.Before(other.Start) {
		out = append(out, Range{Start: r.Start, End: other.Start})
	}
	if other.End.Before(r.End) {
		out = append(out, Range{Start: other.End, End: r.End})
	}
	return out
}

// Equal reports whether both endpoints match.
func (r Range) Equal(other Range) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// SortByStart orders ranges in place by start time, earliest first.
func SortByStart(ranges []Range) {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start.Before(ranges[j].Start)
	})
}

// Merge returns the union of the given ranges as a sorted sequence of
// non-overlapping ranges, coalescing ranges that overlap or touch.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	SortByStart(sorted)

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// SubtractAll removes every range in cuts from every range in base,
// returning the sorted remainder.
func SubtractAll(base, cuts []Range) []Range {
	out := base
	for _, cut := range cuts {
		var next []Range
		for _, r := range out {
			next = append(next, r.Subtract(cut)...)
		}
		out = next
	}
	SortByStart(out)
	return out
}
