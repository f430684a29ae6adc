package resources

import (
	"errors"
	"net/http"
	"time"

	"reservio/internal/shared/utils/response"
	"reservio/internal/timerange"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// statusFor maps resource errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrInvalidTimezone),
		errors.Is(err, timerange.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrHasReservations):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (c *Controller) Create(ctx *gin.Context) {
	var req CreateResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resource, err := c.service.Create(ctx.Request.Context(), CreateResourceInput{
		TenantID: req.TenantID,
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Timezone: req.Timezone,
		Metadata: JSONMap(req.Metadata),
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Resource created successfully", resource)
}

func (c *Controller) Get(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	resource, err := c.service.Get(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Resource retrieved successfully", resource)
}

func (c *Controller) List(ctx *gin.Context) {
	var query ListResourcesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resources, total, err := c.service.List(ctx.Request.Context(), query.TenantID, ListFilters{
		Type:       query.Type,
		ActiveOnly: query.ActiveOnly,
		Page:       query.Page,
		Limit:      query.Limit,
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 20
	}
	response.Success(ctx, http.StatusOK, "Resources retrieved successfully", ResourceListResponse{
		Resources: resources,
		Total:     total,
		Page:      page,
		Limit:     limit,
	})
}

func (c *Controller) Update(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resource, err := c.service.Update(ctx.Request.Context(), id, UpdateResourceInput{
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Timezone: req.Timezone,
		Metadata: JSONMap(req.Metadata),
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Resource updated successfully", resource)
}

func (c *Controller) Deactivate(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.Deactivate(ctx.Request.Context(), id); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Resource deactivated", nil)
}

func (c *Controller) Activate(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.Activate(ctx.Request.Context(), id); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Resource activated", nil)
}

func (c *Controller) Delete(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.Delete(ctx.Request.Context(), id); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Resource deleted successfully", nil)
}

// AVAILABILITY WINDOWS

func (c *Controller) AddWindow(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req AddWindowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	window, err := c.service.AddWindow(ctx.Request.Context(), AddWindowInput{
		ResourceID: id,
		Weekday:    req.Weekday,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Availability window added", window)
}

func (c *Controller) ListWindows(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	windows, err := c.service.ListWindows(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Availability windows retrieved", windows)
}

func (c *Controller) RemoveWindow(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	windowID, ok := pathUUID(ctx, "windowId")
	if !ok {
		return
	}

	if err := c.service.RemoveWindow(ctx.Request.Context(), id, windowID); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Availability window removed", nil)
}

// AVAILABILITY EXCEPTIONS

func (c *Controller) AddException(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req AddExceptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	rng, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	exception, err := c.service.AddException(ctx.Request.Context(), AddExceptionInput{
		ResourceID: id,
		Range:      rng,
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Availability exception added", exception)
}

func (c *Controller) ListExceptions(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	exceptions, err := c.service.ListExceptions(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Availability exceptions retrieved", exceptions)
}

func (c *Controller) RemoveException(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	exceptionID, ok := pathUUID(ctx, "exceptionId")
	if !ok {
		return
	}

	if err := c.service.RemoveException(ctx.Request.Context(), id, exceptionID); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Availability exception removed", nil)
}

func pathUUID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseRange(start, end string) (timerange.Range, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return timerange.Range{}, errors.New("start_time must be RFC 3339")
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return timerange.Range{}, errors.New("end_time must be RFC 3339")
	}
	return timerange.New(startTime, endTime)
}
