package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reservio/internal/timerange"
)

// ReserveInput carries the fields for an atomic check-and-insert.
// ExpiresAt is required for holds and ignored for bookings.
type ReserveInput struct {
	ResourceID uuid.UUID
	Range      timerange.Range
	Kind       Kind
	Requester  string
	Title      string
	Notes      string
	ExpiresAt  *time.Time
}

// Store is the transactional persistence boundary. Every write that
// could violate the overlap invariant performs its check and its
// mutation in one atomic unit of work: of two concurrent writers on
// intersecting ranges exactly one sees ErrOverlap. Reads may be weaker;
// a stale read is always caught by the next write's own check.
//
// The current instant is passed in rather than read inside, so the
// engine and the reaper share one clock per operation.
type Store interface {
	// TryReserve inserts a hold or booking iff its range does not
	// intersect any active claim on the resource.
	TryReserve(ctx context.Context, input ReserveInput, now time.Time) (*Reservation, error)

	// GetByID returns a reservation regardless of kind.
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// CancelBooking soft-cancels an active booking and returns it.
	CancelBooking(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*Reservation, error)

	// ConvertHoldToBooking atomically replaces a still-active hold with
	// a CONFIRMED booking on the same range. It competes with
	// ReapExpired on the same row; at most one wins.
	ConvertHoldToBooking(ctx context.Context, holdID uuid.UUID, title, notes, actor string, now time.Time) (*Reservation, error)

	// ReleaseHold destroys a hold before its expiry.
	ReleaseHold(ctx context.Context, holdID uuid.UUID, now time.Time) error

	// UpdateStatus moves a booking from one status to another,
	// conditionally on the booking still being in the from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, actor string, now time.Time) (*Reservation, error)

	// Reschedule re-runs the overlap check against all other active
	// claims before applying the new range.
	Reschedule(ctx context.Context, id uuid.UUID, newRange timerange.Range, actor string, now time.Time) (*Reservation, error)

	// ListActive returns the ranges blocking the resource inside span.
	ListActive(ctx context.Context, resourceID uuid.UUID, span timerange.Range, now time.Time) ([]ActiveClaim, error)

	// ReapExpired destroys every hold with expires_at <= nowFloor and
	// returns the reclaimed holds. Used only by the reaper.
	ReapExpired(ctx context.Context, nowFloor time.Time) ([]Reservation, error)

	// ListForRequester pages a requester's reservations, newest first.
	ListForRequester(ctx context.Context, requester string, limit int) ([]Reservation, error)

	// CountForResource counts reservations still referencing a
	// resource, guarding hard deletes.
	CountForResource(ctx context.Context, resourceID uuid.UUID) (int64, error)
}

// AttachReclaimListener wires the listener that hears about expired
// holds purged in-line by TryReserve/Reschedule. Those rows never reach
// ReapExpired, so without this the capacity they free beyond the
// incoming claim would be lost to the waitlist.
func AttachReclaimListener(s Store, listener CapacityListener) {
	switch store := s.(type) {
	case *gormStore:
		store.reclaimed = listener
	case *memStore:
		store.reclaimed = listener
	}
}

// notifyReclaimed hands each purged hold's unconsumed remainder to the
// listener. Runs after the purging write has committed; a promotion
// placing a hold re-validates atomically, so over-signaling is safe and
// under-signaling is not.
func notifyReclaimed(ctx context.Context, listener CapacityListener, purged []Reservation, claimed timerange.Range) {
	if listener == nil {
		return
	}
	for _, hold := range purged {
		for _, freed := range hold.Range().Subtract(claimed) {
			listener.OnCapacityFreed(ctx, hold.ResourceID, freed)
		}
	}
}
