package waitlist

import (
	"time"

	"github.com/google/uuid"

	"reservio/internal/timerange"
)

// EntryStatus represents the lifecycle of a waitlist entry.
type EntryStatus string

const (
	EntryStatusActive    EntryStatus = "ACTIVE"
	EntryStatusPromoted  EntryStatus = "PROMOTED"
	EntryStatusWithdrawn EntryStatus = "WITHDRAWN"
)

// Entry records a desire for a resource over a range that was not
// available at request time. Entries are not subject to the overlap
// invariant; any number may want the same range. Promotion order is the
// strict total order (priority ASC, created_at ASC): lower priority
// value means served first, creation time breaks ties.
type Entry struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceID   uuid.UUID   `json:"resource_id" gorm:"type:uuid;not null;index"`
	Requester    string      `json:"requester" gorm:"type:varchar(128);not null;index"`
	DesiredStart time.Time   `json:"desired_start" gorm:"not null"`
	DesiredEnd   time.Time   `json:"desired_end" gorm:"not null"`
	Priority     int         `json:"priority" gorm:"not null;index"`
	Status       EntryStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	PromotedAt   *time.Time  `json:"promoted_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Entry.
func (Entry) TableName() string {
	return "waitlist_entries"
}

// DesiredRange returns the entry's desired time range.
func (e *Entry) DesiredRange() timerange.Range {
	return timerange.Range{Start: e.DesiredStart, End: e.DesiredEnd}
}

// IsActive reports whether the entry is still waiting.
func (e *Entry) IsActive() bool {
	return e.Status == EntryStatusActive
}
