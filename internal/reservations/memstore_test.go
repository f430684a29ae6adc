package reservations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"reservio/internal/timerange"
)

// assertNonOverlapping fails when any two active claims share an instant.
func assertNonOverlapping(t *testing.T, claims []ActiveClaim) {
	t.Helper()
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			if claims[i].Range.Overlaps(claims[j].Range) {
				t.Fatalf("claims overlap: %s and %s", claims[i].Range, claims[j].Range)
			}
		}
	}
}

func TestTryReserveConcurrentSingleWinner(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewMemStore()
	ctx := context.Background()

	resourceID := uuid.New()
	rng := timerange.MustNew(base.Add(time.Hour), base.Add(2*time.Hour))
	expiresAt := base.Add(30 * time.Minute)

	const workers = 64
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			// Holds and bookings compete for the same range alike.
			input := ReserveInput{
				ResourceID: resourceID,
				Range:      rng,
				Kind:       KindBooking,
				Requester:  fmt.Sprintf("w-%d", i),
			}
			if i%2 == 0 {
				input.Kind = KindHold
				input.ExpiresAt = &expiresAt
			}
			_, errs[i] = store.TryReserve(ctx, input, base)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrOverlap):
		default:
			t.Fatalf("worker %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	claims, err := store.ListActive(ctx, resourceID, rng, base)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("active claims = %d, want 1", len(claims))
	}
}

func TestTryReserveConcurrentChainStaysDisjoint(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewMemStore()
	ctx := context.Background()

	resourceID := uuid.New()

	// Each requested hour starts 30 minutes into the previous one, so
	// every claim conflicts with its neighbors and the winners form some
	// disjoint subset of the chain.
	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			from := base.Add(time.Duration(i) * 30 * time.Minute)
			_, err := store.TryReserve(ctx, ReserveInput{
				ResourceID: resourceID,
				Range:      timerange.MustNew(from, from.Add(time.Hour)),
				Kind:       KindBooking,
				Requester:  fmt.Sprintf("w-%d", i),
			}, base)
			if err != nil && !errors.Is(err, ErrOverlap) {
				t.Errorf("worker %d: unexpected error %v", i, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	span := timerange.MustNew(base, base.Add(workers*time.Hour))
	claims, err := store.ListActive(ctx, resourceID, span, base)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(claims) == 0 {
		t.Fatal("no claim survived the race")
	}
	assertNonOverlapping(t, claims)
}

func TestRescheduleConcurrentSingleWinner(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewMemStore()
	ctx := context.Background()

	resourceID := uuid.New()
	target := timerange.MustNew(base.Add(40*time.Hour), base.Add(41*time.Hour))

	// Disjoint bookings on one resource all racing into one target range.
	const workers = 16
	ids := make([]uuid.UUID, workers)
	for i := 0; i < workers; i++ {
		from := base.Add(time.Duration(i) * time.Hour)
		booking, err := store.TryReserve(ctx, ReserveInput{
			ResourceID: resourceID,
			Range:      timerange.MustNew(from, from.Add(30*time.Minute)),
			Kind:       KindBooking,
			Requester:  fmt.Sprintf("w-%d", i),
		}, base)
		if err != nil {
			t.Fatalf("TryReserve %d: %v", i, err)
		}
		ids[i] = booking.ID
	}

	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = store.Reschedule(ctx, ids[i], target, "scheduler", base)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrOverlap):
		default:
			t.Fatalf("worker %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	// Losers keep their original slot, so every booking is still active
	// and no two of them intersect.
	span := timerange.MustNew(base, base.Add(48*time.Hour))
	claims, err := store.ListActive(ctx, resourceID, span, base)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(claims) != workers {
		t.Fatalf("active claims = %d, want %d", len(claims), workers)
	}
	assertNonOverlapping(t, claims)
}
