package reservations

import (
	"testing"
	"time"
)

func TestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusTentative, StatusConfirmed, true},
		{StatusTentative, StatusCancelled, true},
		{StatusTentative, StatusNoShow, true},
		{StatusTentative, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusTentative, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusNoShow, StatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusBlocks(t *testing.T) {
	blocking := map[Status]bool{
		StatusTentative: true,
		StatusConfirmed: true,
		StatusCompleted: false,
		StatusCancelled: false,
		StatusNoShow:    false,
	}
	for status, want := range blocking {
		if got := status.Blocks(); got != want {
			t.Errorf("%s.Blocks() = %v, want %v", status, got, want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !status.IsTerminal() {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []Status{StatusTentative, StatusConfirmed} {
		if status.IsTerminal() {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestHoldActiveAtBoundary(t *testing.T) {
	expiry := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	hold := &Reservation{Kind: KindHold, ExpiresAt: &expiry}

	if !hold.HoldActiveAt(expiry.Add(-time.Millisecond)) {
		t.Error("hold should be active one millisecond before expiry")
	}
	if hold.HoldActiveAt(expiry) {
		t.Error("hold should be expired exactly at expiry")
	}
	if hold.HoldActiveAt(expiry.Add(time.Millisecond)) {
		t.Error("hold should be expired after expiry")
	}

	// A hold without an expiry never blocks; it is malformed data.
	orphan := &Reservation{Kind: KindHold}
	if orphan.HoldActiveAt(expiry) {
		t.Error("hold without expiry should not be active")
	}
}
