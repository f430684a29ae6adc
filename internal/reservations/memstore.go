package reservations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reservio/internal/timerange"
)

// memStore is an in-memory Store: a single mutex serializes every
// write, which trivially satisfies the check-and-insert atomicity the
// contract demands. It backs tests and embedded deployments.
type memStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*Reservation
	reclaimed CapacityListener
}

// NewMemStore creates an in-memory reservation store.
func NewMemStore() Store {
	return &memStore{rows: make(map[uuid.UUID]*Reservation)}
}

func (s *memStore) hasOverlap(resourceID uuid.UUID, rng timerange.Range, now time.Time, excludeID uuid.UUID) bool {
	for _, row := range s.rows {
		if row.ResourceID != resourceID || row.ID == excludeID {
			continue
		}
		if !row.BlocksAt(now) {
			continue
		}
		if row.Range().Overlaps(rng) {
			return true
		}
	}
	return false
}

// purgeExpiredLocked removes expired holds overlapping rng, mirroring
// the SQL store's in-transaction purge. Callers restore the rows when
// the write is abandoned and notify the remainder when it lands.
func (s *memStore) purgeExpiredLocked(resourceID uuid.UUID, rng timerange.Range, now time.Time) []Reservation {
	var purged []Reservation
	for id, row := range s.rows {
		if row.ResourceID != resourceID || row.Kind != KindHold {
			continue
		}
		if row.ExpiresAt == nil || now.Before(*row.ExpiresAt) {
			continue
		}
		if !row.Range().Overlaps(rng) {
			continue
		}
		purged = append(purged, *row)
		delete(s.rows, id)
	}
	return purged
}

func (s *memStore) restoreLocked(rows []Reservation) {
	for _, row := range rows {
		copied := row
		s.rows[row.ID] = &copied
	}
}

func (s *memStore) TryReserve(ctx context.Context, input ReserveInput, now time.Time) (*Reservation, error) {
	s.mu.Lock()

	purged := s.purgeExpiredLocked(input.ResourceID, input.Range, now)
	if s.hasOverlap(input.ResourceID, input.Range, now, uuid.Nil) {
		s.restoreLocked(purged)
		s.mu.Unlock()
		return nil, ErrOverlap
	}

	reservation := &Reservation{
		ID:         uuid.New(),
		ResourceID: input.ResourceID,
		Requester:  input.Requester,
		StartTime:  input.Range.Start,
		EndTime:    input.Range.End,
		Kind:       input.Kind,
		Title:      input.Title,
		Notes:      input.Notes,
		CreatedBy:  input.Requester,
		UpdatedBy:  input.Requester,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch input.Kind {
	case KindHold:
		expiresAt := *input.ExpiresAt
		reservation.ExpiresAt = &expiresAt
	case KindBooking:
		reservation.Status = StatusTentative
	}

	s.rows[reservation.ID] = reservation
	copied := *reservation
	s.mu.Unlock()

	// Outside the lock: the listener may re-enter the store to place a
	// promotion hold.
	notifyReclaimed(ctx, s.reclaimed, purged, input.Range)
	return &copied, nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *memStore) CancelBooking(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Kind != KindBooking {
		return nil, ErrNotFound
	}
	if !row.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, StatusCancelled)
	}

	row.Status = StatusCancelled
	cancelledAt := now
	row.CancelledAt = &cancelledAt
	row.UpdatedBy = actor
	row.UpdatedAt = now

	copied := *row
	return &copied, nil
}

func (s *memStore) ConvertHoldToBooking(ctx context.Context, holdID uuid.UUID, title, notes, actor string, now time.Time) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[holdID]
	if !ok {
		return nil, ErrNotFound
	}
	if row.Kind != KindHold {
		return nil, ErrNotAHold
	}
	if !row.HoldActiveAt(now) {
		return nil, ErrHoldExpired
	}

	row.Kind = KindBooking
	row.Status = StatusConfirmed
	row.Title = title
	row.Notes = notes
	row.ExpiresAt = nil
	row.UpdatedBy = actor
	row.UpdatedAt = now

	copied := *row
	return &copied, nil
}

func (s *memStore) ReleaseHold(ctx context.Context, holdID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[holdID]
	if !ok || row.Kind != KindHold {
		return ErrNotFound
	}
	delete(s.rows, holdID)
	return nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, actor string, now time.Time) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Kind != KindBooking || row.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	row.Status = to
	row.UpdatedBy = actor
	row.UpdatedAt = now

	copied := *row
	return &copied, nil
}

func (s *memStore) Reschedule(ctx context.Context, id uuid.UUID, newRange timerange.Range, actor string, now time.Time) (*Reservation, error) {
	s.mu.Lock()

	row, ok := s.rows[id]
	if !ok || row.Kind != KindBooking {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if !row.Status.Blocks() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidTransition, row.Status)
	}

	purged := s.purgeExpiredLocked(row.ResourceID, newRange, now)
	if s.hasOverlap(row.ResourceID, newRange, now, row.ID) {
		s.restoreLocked(purged)
		s.mu.Unlock()
		return nil, ErrOverlap
	}

	row.StartTime = newRange.Start
	row.EndTime = newRange.End
	row.UpdatedBy = actor
	row.UpdatedAt = now

	copied := *row
	s.mu.Unlock()

	notifyReclaimed(ctx, s.reclaimed, purged, newRange)
	return &copied, nil
}

func (s *memStore) ListActive(ctx context.Context, resourceID uuid.UUID, span timerange.Range, now time.Time) ([]ActiveClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claims []ActiveClaim
	for _, row := range s.rows {
		if row.ResourceID != resourceID || !row.BlocksAt(now) {
			continue
		}
		if !row.Range().Overlaps(span) {
			continue
		}
		claims = append(claims, ActiveClaim{Range: row.Range(), Kind: row.Kind})
	}

	sort.Slice(claims, func(i, j int) bool {
		return claims[i].Range.Start.Before(claims[j].Range.Start)
	})
	return claims, nil
}

func (s *memStore) ReapExpired(ctx context.Context, nowFloor time.Time) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reclaimed []Reservation
	for id, row := range s.rows {
		if row.Kind != KindHold || row.ExpiresAt == nil {
			continue
		}
		if row.ExpiresAt.After(nowFloor) {
			continue
		}
		reclaimed = append(reclaimed, *row)
		delete(s.rows, id)
	}

	sort.Slice(reclaimed, func(i, j int) bool {
		return reclaimed[i].ExpiresAt.Before(*reclaimed[j].ExpiresAt)
	})
	return reclaimed, nil
}

func (s *memStore) ListForRequester(ctx context.Context, requester string, limit int) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 {
		limit = 50
	}

	var rows []Reservation
	for _, row := range s.rows {
		if row.Requester == requester {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].StartTime.After(rows[j].StartTime)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *memStore) CountForResource(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, row := range s.rows {
		if row.ResourceID == resourceID {
			count++
		}
	}
	return count, nil
}
