package resources

type CreateResourceRequest struct {
	TenantID string                 `json:"tenant_id" binding:"required,min=1,max=64"`
	Name     string                 `json:"name" binding:"required,min=1,max=255"`
	Type     string                 `json:"type" binding:"required,min=1,max=64"`
	Capacity *int                   `json:"capacity" binding:"omitempty,min=1"`
	Timezone string                 `json:"timezone" binding:"omitempty,iana_tz,max=64"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UpdateResourceRequest struct {
	Name     *string                `json:"name" binding:"omitempty,min=1,max=255"`
	Type     *string                `json:"type" binding:"omitempty,min=1,max=64"`
	Capacity *int                   `json:"capacity" binding:"omitempty,min=1"`
	Timezone *string                `json:"timezone" binding:"omitempty,iana_tz,max=64"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ListResourcesQuery struct {
	TenantID   string `form:"tenant_id" binding:"required,min=1,max=64"`
	Type       string `form:"type" binding:"omitempty,max=64"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type AddWindowRequest struct {
	Weekday   int    `json:"weekday" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

type AddExceptionRequest struct {
	StartTime string `json:"start_time" binding:"required"` // RFC 3339
	EndTime   string `json:"end_time" binding:"required"`   // RFC 3339
	Reason    string `json:"reason" binding:"omitempty,max=255"`
}
