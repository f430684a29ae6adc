package resources

import "errors"

var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidWindow   = errors.New("invalid availability window")
	ErrInvalidTimezone = errors.New("unknown timezone")
	ErrHasReservations = errors.New("resource still has reservations")
)
