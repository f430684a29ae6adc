package reservations

type PlaceHoldRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	StartTime  string `json:"start_time" binding:"required"` // RFC 3339
	EndTime    string `json:"end_time" binding:"required"`   // RFC 3339
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,min=1"`
}

type ConfirmBookingRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
	Notes string `json:"notes" binding:"omitempty,max=2000"`
}

type BookDirectRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	StartTime  string `json:"start_time" binding:"required"` // RFC 3339
	EndTime    string `json:"end_time" binding:"required"`   // RFC 3339
	Title      string `json:"title" binding:"required,min=1,max=255"`
	Notes      string `json:"notes" binding:"omitempty,max=2000"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=TENTATIVE CONFIRMED COMPLETED CANCELLED NO_SHOW"`
}

type RescheduleRequest struct {
	StartTime string `json:"start_time" binding:"required"` // RFC 3339
	EndTime   string `json:"end_time" binding:"required"`   // RFC 3339
}

type SlotQuery struct {
	ResourceID      string `form:"resource_id" binding:"required,uuid"`
	From            string `form:"from" binding:"required"` // RFC 3339
	To              string `form:"to" binding:"required"`   // RFC 3339
	DurationMinutes int    `form:"duration_minutes" binding:"required,min=1"`
}

type ListReservationsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}
