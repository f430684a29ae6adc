package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reservio/internal/timerange"
)

// ReservationCounter reports how many reservations still reference a
// resource (declared locally to avoid an import cycle with the
// reservations package).
type ReservationCounter interface {
	CountForResource(ctx context.Context, resourceID uuid.UUID) (int64, error)
}

// Service defines the contract for resource administration.
type Service interface {
	Create(ctx context.Context, input CreateResourceInput) (*Resource, error)
	Get(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Resource, int64, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateResourceInput) (*Resource, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddWindow(ctx context.Context, input AddWindowInput) (*AvailabilityWindow, error)
	ListWindows(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityWindow, error)
	RemoveWindow(ctx context.Context, resourceID, windowID uuid.UUID) error

	AddException(ctx context.Context, input AddExceptionInput) (*AvailabilityException, error)
	ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityException, error)
	RemoveException(ctx context.Context, resourceID, exceptionID uuid.UUID) error
}

// CreateResourceInput carries the fields for a new resource.
type CreateResourceInput struct {
	TenantID string
	Name     string
	Type     string
	Capacity *int
	Timezone string
	Metadata JSONMap
}

// UpdateResourceInput carries mutable resource fields; nil means keep.
type UpdateResourceInput struct {
	Name     *string
	Type     *string
	Capacity *int
	Timezone *string
	Metadata JSONMap
}

// AddWindowInput carries the fields for a new recurring window.
type AddWindowInput struct {
	ResourceID uuid.UUID
	Weekday    int
	StartTime  string
	EndTime    string
}

// AddExceptionInput carries the fields for a new availability exception.
type AddExceptionInput struct {
	ResourceID uuid.UUID
	Range      timerange.Range
	Reason     string
}

type service struct {
	repo         Repository
	reservations ReservationCounter
}

// NewService creates a new resource service. The counter guards hard
// deletes; it may be attached after construction to break wiring order.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AttachReservationCounter wires the hard-delete guard.
func AttachReservationCounter(s Service, counter ReservationCounter) {
	if svc, ok := s.(*service); ok {
		svc.reservations = counter
	}
}

func (s *service) Create(ctx context.Context, input CreateResourceInput) (*Resource, error) {
	tz := input.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}

	resource := &Resource{
		TenantID: input.TenantID,
		Name:     input.Name,
		Type:     input.Type,
		Capacity: input.Capacity,
		Timezone: tz,
		Active:   true,
		Metadata: input.Metadata,
	}
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return resource, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, tenantID string, filters ListFilters) ([]Resource, int64, error) {
	return s.repo.List(ctx, tenantID, filters)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateResourceInput) (*Resource, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Type != nil {
		updates["type"] = *input.Type
	}
	if input.Capacity != nil {
		updates["capacity"] = *input.Capacity
	}
	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, *input.Timezone)
		}
		updates["timezone"] = *input.Timezone
	}
	if input.Metadata != nil {
		updates["metadata"] = input.Metadata
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Update(ctx, id, map[string]interface{}{"active": false})
}

func (s *service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Update(ctx, id, map[string]interface{}{"active": true})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if s.reservations != nil {
		count, err := s.reservations.CountForResource(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		if count > 0 {
			return ErrHasReservations
		}
	}

	return s.repo.Delete(ctx, id)
}

func (s *service) AddWindow(ctx context.Context, input AddWindowInput) (*AvailabilityWindow, error) {
	if err := ValidateWindow(input.Weekday, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, input.ResourceID); err != nil {
		return nil, err
	}

	window := &AvailabilityWindow{
		ID:         uuid.New(),
		ResourceID: input.ResourceID,
		Weekday:    input.Weekday,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
	}
	if err := s.repo.CreateWindow(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	return window, nil
}

func (s *service) ListWindows(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityWindow, error) {
	return s.repo.ListWindows(ctx, resourceID)
}

func (s *service) RemoveWindow(ctx context.Context, resourceID, windowID uuid.UUID) error {
	window, err := s.repo.GetWindow(ctx, windowID)
	if err != nil {
		return err
	}
	if window.ResourceID != resourceID {
		return ErrNotFound
	}
	return s.repo.DeleteWindow(ctx, windowID)
}

func (s *service) AddException(ctx context.Context, input AddExceptionInput) (*AvailabilityException, error) {
	if _, err := s.repo.GetByID(ctx, input.ResourceID); err != nil {
		return nil, err
	}

	exc := &AvailabilityException{
		ID:         uuid.New(),
		ResourceID: input.ResourceID,
		StartTime:  input.Range.Start,
		EndTime:    input.Range.End,
		Reason:     input.Reason,
	}
	if err := s.repo.CreateException(ctx, exc); err != nil {
		return nil, fmt.Errorf("failed to create exception: %w", err)
	}
	return exc, nil
}

func (s *service) ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityException, error) {
	return s.repo.ListExceptions(ctx, resourceID)
}

func (s *service) RemoveException(ctx context.Context, resourceID, exceptionID uuid.UUID) error {
	exc, err := s.repo.GetException(ctx, exceptionID)
	if err != nil {
		return err
	}
	if exc.ResourceID != resourceID {
		return ErrNotFound
	}
	return s.repo.DeleteException(ctx, exceptionID)
}

// ValidateWindow rejects malformed recurring windows before any write:
// the weekday must be ISO 1–7 and the local times must parse as "15:04"
// wall clock with start strictly before end.
func ValidateWindow(weekday int, startTime, endTime string) error {
	if weekday < 1 || weekday > 7 {
		return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidWindow, weekday)
	}

	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrInvalidWindow, startTime)
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrInvalidWindow, endTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %q not before end %q", ErrInvalidWindow, startTime, endTime)
	}
	return nil
}
