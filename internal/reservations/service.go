package reservations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reservio/internal/availability"
	"reservio/internal/clock"
	"reservio/internal/resources"
	"reservio/internal/timerange"
)

// ResourceDirectory is the slice of the resources service the engine
// needs (declared locally to avoid depending on its full surface).
type ResourceDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*resources.Resource, error)
	ListWindows(ctx context.Context, resourceID uuid.UUID) ([]resources.AvailabilityWindow, error)
	ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]resources.AvailabilityException, error)
}

// CapacityListener is notified when a cancellation frees a range, so
// the waitlist can attempt a promotion. Declared locally; implemented
// by the waitlist coordinator.
type CapacityListener interface {
	OnCapacityFreed(ctx context.Context, resourceID uuid.UUID, freed timerange.Range)
}

// SlotCache caches slot-query results. Reads are allowed to be stale:
// a stale offer is caught by TryReserve's own atomic check.
type SlotCache interface {
	GetSlots(ctx context.Context, key string) ([]timerange.Range, bool)
	SetSlots(ctx context.Context, key string, slots []timerange.Range)
	InvalidateResource(ctx context.Context, resourceID uuid.UUID)
}

// Engine orchestrates the hold/booking lifecycle and slot search.
type Engine interface {
	PlaceHold(ctx context.Context, resourceID uuid.UUID, rng timerange.Range, requester string, ttl time.Duration) (*Reservation, error)
	ConfirmBooking(ctx context.Context, holdID uuid.UUID, title, notes, actor string) (*Reservation, error)
	ReleaseHold(ctx context.Context, holdID uuid.UUID, actor string) error
	BookDirect(ctx context.Context, resourceID uuid.UUID, rng timerange.Range, requester, title, notes string) (*Reservation, error)
	ChangeStatus(ctx context.Context, bookingID uuid.UUID, newStatus Status, actor string) (*Reservation, error)
	Reschedule(ctx context.Context, bookingID uuid.UUID, newRange timerange.Range, actor string) (*Reservation, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, actor string) (*Reservation, error)
	FindAvailableSlots(ctx context.Context, resourceID uuid.UUID, span timerange.Range, duration time.Duration) ([]timerange.Range, error)
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListForRequester(ctx context.Context, requester string, limit int) ([]Reservation, error)
}

// EngineConfig tunes engine behavior.
type EngineConfig struct {
	// DefaultHoldTTL applies when a caller asks for a hold without a TTL.
	DefaultHoldTTL time.Duration
	// MaxHoldTTL caps caller-supplied TTLs.
	MaxHoldTTL time.Duration
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultHoldTTL: 10 * time.Minute,
		MaxHoldTTL:     time.Hour,
	}
}

type engine struct {
	store    Store
	dir      ResourceDirectory
	clock    clock.Clock
	cfg      EngineConfig
	logger   *slog.Logger
	waitlist CapacityListener
	cache    SlotCache
}

// NewEngine creates the reservation engine. Waitlist and cache are
// optional and attached after construction to break wiring order.
func NewEngine(store Store, dir ResourceDirectory, clk clock.Clock, cfg EngineConfig, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{
		store:  store,
		dir:    dir,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// AttachWaitlist wires the coordinator that receives freed-capacity
// signals on cancellation.
func AttachWaitlist(e Engine, listener CapacityListener) {
	if eng, ok := e.(*engine); ok {
		eng.waitlist = listener
	}
}

// AttachSlotCache wires the optional slot-query cache.
func AttachSlotCache(e Engine, cache SlotCache) {
	if eng, ok := e.(*engine); ok {
		eng.cache = cache
	}
}

func (e *engine) activeResource(ctx context.Context, resourceID uuid.UUID) (*resources.Resource, error) {
	resource, err := e.dir.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resources.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !resource.Active {
		return nil, ErrResourceInactive
	}
	return resource, nil
}

func (e *engine) PlaceHold(ctx context.Context, resourceID uuid.UUID, rng timerange.Range, requester string, ttl time.Duration) (*Reservation, error) {
	if _, err := e.activeResource(ctx, resourceID); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = e.cfg.DefaultHoldTTL
	}
	if e.cfg.MaxHoldTTL > 0 && ttl > e.cfg.MaxHoldTTL {
		ttl = e.cfg.MaxHoldTTL
	}

	now := e.clock.Now()
	expiresAt := now.Add(ttl)

	hold, err := e.store.TryReserve(ctx, ReserveInput{
		ResourceID: resourceID,
		Range:      rng,
		Kind:       KindHold,
		Requester:  requester,
		ExpiresAt:  &expiresAt,
	}, now)
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, resourceID)
	e.logger.Info("hold placed",
		slog.String("hold_id", hold.ID.String()),
		slog.String("resource_id", resourceID.String()),
		slog.Time("expires_at", expiresAt),
	)
	return hold, nil
}

func (e *engine) ConfirmBooking(ctx context.Context, holdID uuid.UUID, title, notes, actor string) (*Reservation, error) {
	now := e.clock.Now()
	booking, err := e.store.ConvertHoldToBooking(ctx, holdID, title, notes, actor, now)
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, booking.ResourceID)
	e.logger.Info("hold confirmed",
		slog.String("booking_id", booking.ID.String()),
		slog.String("resource_id", booking.ResourceID.String()),
	)
	return booking, nil
}

func (e *engine) ReleaseHold(ctx context.Context, holdID uuid.UUID, actor string) error {
	hold, err := e.store.GetByID(ctx, holdID)
	if err != nil {
		return err
	}
	if hold.Kind != KindHold {
		return ErrNotAHold
	}

	now := e.clock.Now()
	if err := e.store.ReleaseHold(ctx, holdID, now); err != nil {
		return err
	}

	e.invalidate(ctx, hold.ResourceID)

	// A released hold frees capacity the same way an expiry does.
	if e.waitlist != nil && hold.HoldActiveAt(now) {
		e.waitlist.OnCapacityFreed(ctx, hold.ResourceID, hold.Range())
	}
	return nil
}

func (e *engine) BookDirect(ctx context.Context, resourceID uuid.UUID, rng timerange.Range, requester, title, notes string) (*Reservation, error) {
	if _, err := e.activeResource(ctx, resourceID); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	booking, err := e.store.TryReserve(ctx, ReserveInput{
		ResourceID: resourceID,
		Range:      rng,
		Kind:       KindBooking,
		Requester:  requester,
		Title:      title,
		Notes:      notes,
	}, now)
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, resourceID)
	e.logger.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("resource_id", resourceID.String()),
	)
	return booking, nil
}

func (e *engine) ChangeStatus(ctx context.Context, bookingID uuid.UUID, newStatus Status, actor string) (*Reservation, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	booking, err := e.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Kind != KindBooking {
		return nil, ErrNotABooking
	}
	if !booking.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
	}

	// Cancellation goes through Cancel so the waitlist hears about it.
	if newStatus == StatusCancelled {
		return e.Cancel(ctx, bookingID, actor)
	}

	updated, err := e.store.UpdateStatus(ctx, bookingID, booking.Status, newStatus, actor, e.clock.Now())
	if err != nil {
		return nil, err
	}

	if booking.Status.Blocks() && !newStatus.Blocks() {
		e.invalidate(ctx, booking.ResourceID)
	}
	return updated, nil
}

func (e *engine) Reschedule(ctx context.Context, bookingID uuid.UUID, newRange timerange.Range, actor string) (*Reservation, error) {
	now := e.clock.Now()
	updated, err := e.store.Reschedule(ctx, bookingID, newRange, actor, now)
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, updated.ResourceID)
	e.logger.Info("booking rescheduled",
		slog.String("booking_id", bookingID.String()),
		slog.String("new_range", newRange.String()),
	)
	return updated, nil
}

func (e *engine) Cancel(ctx context.Context, bookingID uuid.UUID, actor string) (*Reservation, error) {
	now := e.clock.Now()
	cancelled, err := e.store.CancelBooking(ctx, bookingID, actor, now)
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, cancelled.ResourceID)
	e.logger.Info("booking cancelled",
		slog.String("booking_id", bookingID.String()),
		slog.String("resource_id", cancelled.ResourceID.String()),
	)

	if e.waitlist != nil {
		e.waitlist.OnCapacityFreed(ctx, cancelled.ResourceID, cancelled.Range())
	}
	return cancelled, nil
}

func (e *engine) FindAvailableSlots(ctx context.Context, resourceID uuid.UUID, span timerange.Range, duration time.Duration) ([]timerange.Range, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	resource, err := e.dir.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resources.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !resource.Active {
		return nil, nil
	}

	cacheKey := slotCacheKey(resourceID, span, duration)
	if e.cache != nil {
		if slots, ok := e.cache.GetSlots(ctx, cacheKey); ok {
			return slots, nil
		}
	}

	windows, err := e.dir.ListWindows(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	exceptions, err := e.dir.ListExceptions(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	claims, err := e.store.ListActive(ctx, resourceID, span, now)
	if err != nil {
		return nil, err
	}
	booked := make([]timerange.Range, 0, len(claims))
	for _, claim := range claims {
		booked = append(booked, claim.Range)
	}

	free := availability.FreeIntervals(resource.Location(), windows, exceptions, booked, span)
	slots := availability.FindSlots(free, duration)

	if e.cache != nil {
		e.cache.SetSlots(ctx, cacheKey, slots)
	}
	return slots, nil
}

func (e *engine) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return e.store.GetByID(ctx, id)
}

func (e *engine) ListForRequester(ctx context.Context, requester string, limit int) ([]Reservation, error) {
	return e.store.ListForRequester(ctx, requester, limit)
}

func (e *engine) invalidate(ctx context.Context, resourceID uuid.UUID) {
	if e.cache != nil {
		e.cache.InvalidateResource(ctx, resourceID)
	}
}

func slotCacheKey(resourceID uuid.UUID, span timerange.Range, duration time.Duration) string {
	return fmt.Sprintf("slots:%s:%d:%d:%d",
		resourceID, span.Start.Unix(), span.End.Unix(), int(duration.Minutes()))
}
