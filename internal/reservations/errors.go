package reservations

import "errors"

// Expected outcomes of normal concurrent operation are sentinel errors,
// not panics: callers branch on them with errors.Is.
var (
	ErrOverlap           = errors.New("range conflicts with an active reservation")
	ErrHoldExpired       = errors.New("hold has expired")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("reservation not found")
	ErrResourceInactive  = errors.New("resource is not bookable")
	ErrInvalidDuration   = errors.New("slot duration must be positive")
	ErrNotABooking       = errors.New("reservation is not a booking")
	ErrNotAHold          = errors.New("reservation is not a hold")
)
