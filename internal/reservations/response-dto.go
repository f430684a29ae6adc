package reservations

import "time"

// SlotResponse is one bookable slot offered by a slot query.
type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SlotListResponse wraps a slot query result.
type SlotListResponse struct {
	ResourceID string         `json:"resource_id"`
	Slots      []SlotResponse `json:"slots"`
}
