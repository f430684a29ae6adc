package waitlist

type JoinWaitlistRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	StartTime  string `json:"start_time" binding:"required"` // RFC 3339
	EndTime    string `json:"end_time" binding:"required"`   // RFC 3339
	Priority   int    `json:"priority" binding:"omitempty,min=0,max=1000"`
}

type ListWaitlistQuery struct {
	ResourceID string `form:"resource_id" binding:"required,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE PROMOTED WITHDRAWN"`
}
