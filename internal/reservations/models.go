package reservations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reservio/internal/timerange"
)

// Kind discriminates the two claim flavors stored in one table. Holds
// and bookings share the overlap invariant, so keeping them together
// lets a single exclusion constraint cover both.
type Kind string

const (
	KindHold    Kind = "HOLD"
	KindBooking Kind = "BOOKING"
)

// Reservation is a claim on a resource for an absolute time range:
// either a short-lived hold with an expiry, or a booking with a status.
type Reservation struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceID  uuid.UUID      `json:"resource_id" gorm:"type:uuid;not null;index"`
	Requester   string         `json:"requester" gorm:"type:varchar(128);not null;index"`
	StartTime   time.Time      `json:"start_time" gorm:"not null;index"`
	EndTime     time.Time      `json:"end_time" gorm:"not null"`
	Kind        Kind           `json:"kind" gorm:"type:varchar(10);not null;check:kind IN ('HOLD', 'BOOKING')"`
	Status      Status         `json:"status,omitempty" gorm:"type:varchar(20)"`
	Title       string         `json:"title,omitempty" gorm:"type:varchar(255)"`
	Notes       string         `json:"notes,omitempty" gorm:"type:text"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" gorm:"index"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedBy   string         `json:"created_by" gorm:"type:varchar(128)"`
	UpdatedBy   string         `json:"updated_by" gorm:"type:varchar(128)"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName sets the table name for Reservation.
func (Reservation) TableName() string {
	return "reservations"
}

// Range returns the reservation's time range.
func (r *Reservation) Range() timerange.Range {
	return timerange.Range{Start: r.StartTime, End: r.EndTime}
}

// IsHold reports whether the reservation is a hold.
func (r *Reservation) IsHold() bool {
	return r.Kind == KindHold
}

// IsBooking reports whether the reservation is a booking.
func (r *Reservation) IsBooking() bool {
	return r.Kind == KindBooking
}

// HoldActiveAt reports whether a hold still blocks at the given instant.
// The boundary is strict: a hold with expires_at == now is expired.
func (r *Reservation) HoldActiveAt(now time.Time) bool {
	return r.Kind == KindHold && r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
}

// BlocksAt reports whether this reservation participates in the overlap
// invariant at the given instant.
func (r *Reservation) BlocksAt(now time.Time) bool {
	if r.Kind == KindHold {
		return r.HoldActiveAt(now)
	}
	return r.Status.Blocks()
}

// ActiveClaim is the read-model row for listing what currently blocks a
// resource over a span.
type ActiveClaim struct {
	Range timerange.Range `json:"range"`
	Kind  Kind            `json:"kind"`
}
