package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"reservio/internal/clock"
	"reservio/internal/resources"
	"reservio/internal/timerange"
)

// fakeDirectory is a ResourceDirectory backed by maps.
type fakeDirectory struct {
	byID       map[uuid.UUID]*resources.Resource
	windows    map[uuid.UUID][]resources.AvailabilityWindow
	exceptions map[uuid.UUID][]resources.AvailabilityException
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byID:       make(map[uuid.UUID]*resources.Resource),
		windows:    make(map[uuid.UUID][]resources.AvailabilityWindow),
		exceptions: make(map[uuid.UUID][]resources.AvailabilityException),
	}
}

func (d *fakeDirectory) addResource(active bool, tz string) uuid.UUID {
	id := uuid.New()
	d.byID[id] = &resources.Resource{ID: id, Name: "res", Type: "room", Timezone: tz, Active: active}
	return id
}

func (d *fakeDirectory) Get(ctx context.Context, id uuid.UUID) (*resources.Resource, error) {
	resource, ok := d.byID[id]
	if !ok {
		return nil, resources.ErrNotFound
	}
	return resource, nil
}

func (d *fakeDirectory) ListWindows(ctx context.Context, resourceID uuid.UUID) ([]resources.AvailabilityWindow, error) {
	return d.windows[resourceID], nil
}

func (d *fakeDirectory) ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]resources.AvailabilityException, error) {
	return d.exceptions[resourceID], nil
}

// capacityRecorder records freed-capacity signals.
type capacityRecorder struct {
	freed []timerange.Range
}

func (c *capacityRecorder) OnCapacityFreed(ctx context.Context, resourceID uuid.UUID, freed timerange.Range) {
	c.freed = append(c.freed, freed)
}

func mustRange(t *testing.T, start, end time.Time) timerange.Range {
	t.Helper()
	rng, err := timerange.New(start, end)
	if err != nil {
		t.Fatalf("invalid range: %v", err)
	}
	return rng
}

func newTestEngine(t *testing.T, dir *fakeDirectory, clk clock.Clock) Engine {
	t.Helper()
	return NewEngine(NewMemStore(), dir, clk, DefaultEngineConfig(), nil)
}

func TestPlaceHoldBlocksDirectBooking(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	clk := clock.NewMock(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	holdRange := mustRange(t, base.Add(10*time.Hour), base.Add(11*time.Hour))
	hold, err := engine.PlaceHold(ctx, resourceID, holdRange, "alice", 10*time.Minute)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	if hold.Kind != KindHold {
		t.Fatalf("kind = %s, want %s", hold.Kind, KindHold)
	}

	// A booking inside the held range must be rejected while the hold
	// lives, even though no booking exists there yet.
	inner := mustRange(t, base.Add(10*time.Hour+30*time.Minute), base.Add(10*time.Hour+45*time.Minute))
	if _, err := engine.BookDirect(ctx, resourceID, inner, "bob", "standup", ""); !errors.Is(err, ErrOverlap) {
		t.Fatalf("BookDirect over hold: err = %v, want ErrOverlap", err)
	}

	// Once the hold expires the same booking succeeds.
	clk.Advance(10 * time.Minute)
	if _, err := engine.BookDirect(ctx, resourceID, inner, "bob", "standup", ""); err != nil {
		t.Fatalf("BookDirect after expiry: %v", err)
	}
}

func TestBookingOverDeadHoldFreesTheRemainder(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMock(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	store := NewMemStore()
	engine := NewEngine(store, dir, clk, DefaultEngineConfig(), nil)
	recorder := &capacityRecorder{}
	AttachReclaimListener(store, recorder)
	ctx := context.Background()

	held := mustRange(t, base.Add(10*time.Hour), base.Add(12*time.Hour))
	if _, err := engine.PlaceHold(ctx, resourceID, held, "alice", 10*time.Minute); err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}

	// The hold dies but no reap tick has run yet; a booking through the
	// middle purges it in-line.
	clk.Advance(10 * time.Minute)
	claim := mustRange(t, base.Add(10*time.Hour+30*time.Minute), base.Add(11*time.Hour))
	if _, err := engine.BookDirect(ctx, resourceID, claim, "bob", "standup", ""); err != nil {
		t.Fatalf("BookDirect: %v", err)
	}

	// The purged hold never reaches the reaper, so the capacity it frees
	// on either side of the new booking must be signalled here.
	want := []timerange.Range{
		mustRange(t, base.Add(10*time.Hour), base.Add(10*time.Hour+30*time.Minute)),
		mustRange(t, base.Add(11*time.Hour), base.Add(12*time.Hour)),
	}
	if len(recorder.freed) != len(want) {
		t.Fatalf("freed = %v, want %d ranges", recorder.freed, len(want))
	}
	for i := range want {
		if !recorder.freed[i].Equal(want[i]) {
			t.Fatalf("freed[%d] = %s, want %s", i, recorder.freed[i], want[i])
		}
	}

	// A claim covering the whole dead hold leaves no remainder to signal.
	held2 := mustRange(t, base.Add(20*time.Hour), base.Add(21*time.Hour))
	if _, err := engine.PlaceHold(ctx, resourceID, held2, "alice", 10*time.Minute); err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	clk.Advance(10 * time.Minute)
	if _, err := engine.BookDirect(ctx, resourceID, held2, "bob", "retro", ""); err != nil {
		t.Fatalf("BookDirect: %v", err)
	}
	if len(recorder.freed) != len(want) {
		t.Fatalf("freed = %v, want no new signals", recorder.freed)
	}
}

func TestConfirmBookingExpiryBoundary(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	ctx := context.Background()

	cases := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{"one millisecond before expiry", 10*time.Minute - time.Millisecond, nil},
		{"exactly at expiry", 10 * time.Minute, ErrHoldExpired},
		{"after expiry", 10*time.Minute + time.Second, ErrHoldExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock.NewMock(base)
			engine := newTestEngine(t, dir, clk)

			rng := mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour))
			hold, err := engine.PlaceHold(ctx, resourceID, rng, "alice", 10*time.Minute)
			if err != nil {
				t.Fatalf("PlaceHold: %v", err)
			}

			clk.Advance(tc.advance)
			booking, err := engine.ConfirmBooking(ctx, hold.ID, "review", "", "alice")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ConfirmBooking: err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil {
				if booking.Kind != KindBooking || booking.Status != StatusConfirmed {
					t.Fatalf("converted to %s/%s, want BOOKING/CONFIRMED", booking.Kind, booking.Status)
				}
				if booking.ExpiresAt != nil {
					t.Fatal("converted booking still carries an expiry")
				}
			}
		})
	}
}

func TestPlaceHoldTTLClamp(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	store := NewMemStore()
	engine := NewEngine(store, dir, clk, EngineConfig{DefaultHoldTTL: 5 * time.Minute, MaxHoldTTL: 30 * time.Minute}, nil)
	ctx := context.Background()

	// Zero TTL falls back to the default.
	hold, err := engine.PlaceHold(ctx, resourceID, mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)), "alice", 0)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	if got, want := *hold.ExpiresAt, base.Add(5*time.Minute); !got.Equal(want) {
		t.Fatalf("default TTL expiry = %v, want %v", got, want)
	}

	// Oversized TTL is clamped to the maximum.
	hold, err = engine.PlaceHold(ctx, resourceID, mustRange(t, base.Add(3*time.Hour), base.Add(4*time.Hour)), "alice", 12*time.Hour)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	if got, want := *hold.ExpiresAt, base.Add(30*time.Minute); !got.Equal(want) {
		t.Fatalf("clamped TTL expiry = %v, want %v", got, want)
	}
}

func TestBookDirectResourceChecks(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	inactive := dir.addResource(false, "UTC")
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	rng := mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour))
	if _, err := engine.BookDirect(ctx, inactive, rng, "alice", "x", ""); !errors.Is(err, ErrResourceInactive) {
		t.Fatalf("inactive resource: err = %v, want ErrResourceInactive", err)
	}
	if _, err := engine.BookDirect(ctx, uuid.New(), rng, "alice", "x", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown resource: err = %v, want ErrNotFound", err)
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	booking, err := engine.BookDirect(ctx, resourceID, mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)), "alice", "x", "")
	if err != nil {
		t.Fatalf("BookDirect: %v", err)
	}

	// TENTATIVE -> CONFIRMED -> COMPLETED is a legal path.
	if _, err := engine.ChangeStatus(ctx, booking.ID, StatusConfirmed, "alice"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	updated, err := engine.ChangeStatus(ctx, booking.ID, StatusCompleted, "alice")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", updated.Status)
	}

	// Terminal states accept nothing further.
	if _, err := engine.ChangeStatus(ctx, booking.ID, StatusCancelled, "alice"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel completed: err = %v, want ErrInvalidTransition", err)
	}

	// Unknown status names are rejected before any lookup.
	if _, err := engine.ChangeStatus(ctx, booking.ID, Status("ARCHIVED"), "alice"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status: err = %v, want ErrInvalidTransition", err)
	}
}

func TestChangeStatusOnHoldRejected(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	hold, err := engine.PlaceHold(ctx, resourceID, mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)), "alice", time.Minute)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	if _, err := engine.ChangeStatus(ctx, hold.ID, StatusConfirmed, "alice"); !errors.Is(err, ErrNotABooking) {
		t.Fatalf("ChangeStatus on hold: err = %v, want ErrNotABooking", err)
	}
}

func TestRescheduleExcludesSelf(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	booking, err := engine.BookDirect(ctx, resourceID, mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)), "alice", "x", "")
	if err != nil {
		t.Fatalf("BookDirect: %v", err)
	}

	// Shifting into a range that overlaps only itself must succeed.
	shifted := mustRange(t, base.Add(90*time.Minute), base.Add(150*time.Minute))
	updated, err := engine.Reschedule(ctx, booking.ID, shifted, "alice")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !updated.Range().Equal(shifted) {
		t.Fatalf("range = %s, want %s", updated.Range(), shifted)
	}

	// A second booking makes the same move conflict.
	if _, err := engine.BookDirect(ctx, resourceID, mustRange(t, base.Add(3*time.Hour), base.Add(4*time.Hour)), "bob", "y", ""); err != nil {
		t.Fatalf("BookDirect second: %v", err)
	}
	clash := mustRange(t, base.Add(3*time.Hour+30*time.Minute), base.Add(5*time.Hour))
	if _, err := engine.Reschedule(ctx, booking.ID, clash, "alice"); !errors.Is(err, ErrOverlap) {
		t.Fatalf("Reschedule clash: err = %v, want ErrOverlap", err)
	}
}

func TestCancelSignalsWaitlist(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	recorder := &capacityRecorder{}
	AttachWaitlist(engine, recorder)
	ctx := context.Background()

	rng := mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour))
	booking, err := engine.BookDirect(ctx, resourceID, rng, "alice", "x", "")
	if err != nil {
		t.Fatalf("BookDirect: %v", err)
	}

	if _, err := engine.Cancel(ctx, booking.ID, "alice"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(recorder.freed) != 1 || !recorder.freed[0].Equal(rng) {
		t.Fatalf("freed = %v, want exactly [%s]", recorder.freed, rng)
	}

	// ChangeStatus to CANCELLED routes through Cancel as well.
	second, err := engine.BookDirect(ctx, resourceID, rng, "bob", "y", "")
	if err != nil {
		t.Fatalf("BookDirect second: %v", err)
	}
	if _, err := engine.ChangeStatus(ctx, second.ID, StatusCancelled, "bob"); err != nil {
		t.Fatalf("ChangeStatus cancel: %v", err)
	}
	if len(recorder.freed) != 2 {
		t.Fatalf("freed count = %d, want 2", len(recorder.freed))
	}
}

func TestReleaseHoldSignalsOnlyWhileActive(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewMock(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	engine := newTestEngine(t, dir, clk)
	recorder := &capacityRecorder{}
	AttachWaitlist(engine, recorder)
	ctx := context.Background()

	hold, err := engine.PlaceHold(ctx, resourceID, mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)), "alice", 10*time.Minute)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	if err := engine.ReleaseHold(ctx, hold.ID, "alice"); err != nil {
		t.Fatalf("ReleaseHold: %v", err)
	}
	if len(recorder.freed) != 1 {
		t.Fatalf("active release: freed count = %d, want 1", len(recorder.freed))
	}

	// An expired hold frees nothing: the reaper owns that signal.
	hold, err = engine.PlaceHold(ctx, resourceID, mustRange(t, base.Add(3*time.Hour), base.Add(4*time.Hour)), "alice", 10*time.Minute)
	if err != nil {
		t.Fatalf("PlaceHold: %v", err)
	}
	clk.Advance(time.Hour)
	if err := engine.ReleaseHold(ctx, hold.ID, "alice"); err != nil {
		t.Fatalf("ReleaseHold expired: %v", err)
	}
	if len(recorder.freed) != 1 {
		t.Fatalf("expired release: freed count = %d, want still 1", len(recorder.freed))
	}
}

func TestFindAvailableSlots(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	clk := clock.NewFixed(base)
	dir := newFakeDirectory()
	resourceID := dir.addResource(true, "UTC")
	dir.windows[resourceID] = []resources.AvailabilityWindow{
		{ID: uuid.New(), ResourceID: resourceID, Weekday: 1, StartTime: "09:00", EndTime: "17:00"},
	}
	engine := newTestEngine(t, dir, clk)
	ctx := context.Background()

	span := mustRange(t, base, base.AddDate(0, 0, 1))

	if _, err := engine.FindAvailableSlots(ctx, resourceID, span, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("zero duration: err = %v, want ErrInvalidDuration", err)
	}

	slots, err := engine.FindAvailableSlots(ctx, resourceID, span, time.Hour)
	if err != nil {
		t.Fatalf("FindAvailableSlots: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("open day slots = %d, want 8", len(slots))
	}

	// An active booking carves its hour out of the offers.
	if _, err := engine.BookDirect(ctx, resourceID, mustRange(t, base.Add(12*time.Hour), base.Add(13*time.Hour)), "alice", "lunch demo", ""); err != nil {
		t.Fatalf("BookDirect: %v", err)
	}
	slots, err = engine.FindAvailableSlots(ctx, resourceID, span, time.Hour)
	if err != nil {
		t.Fatalf("FindAvailableSlots: %v", err)
	}
	if len(slots) != 7 {
		t.Fatalf("slots after booking = %d, want 7", len(slots))
	}
	for _, slot := range slots {
		if slot.Overlaps(mustRange(t, base.Add(12*time.Hour), base.Add(13*time.Hour))) {
			t.Fatalf("offered slot %s overlaps the booking", slot)
		}
	}

	// Inactive resources offer nothing, without error.
	inactive := dir.addResource(false, "UTC")
	slots, err = engine.FindAvailableSlots(ctx, inactive, span, time.Hour)
	if err != nil {
		t.Fatalf("inactive resource: %v", err)
	}
	if slots != nil {
		t.Fatalf("inactive resource slots = %v, want none", slots)
	}
}
