package resources

// ResourceListResponse wraps a paginated resource listing.
type ResourceListResponse struct {
	Resources []Resource `json:"resources"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}
