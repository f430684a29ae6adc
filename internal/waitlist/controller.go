package waitlist

import (
	"errors"
	"net/http"
	"time"

	"reservio/internal/shared/middleware"
	"reservio/internal/shared/utils/response"
	"reservio/internal/timerange"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	coordinator Coordinator
}

func NewController(coordinator Coordinator) *Controller {
	return &Controller{coordinator: coordinator}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, timerange.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (c *Controller) Join(ctx *gin.Context) {
	var req JoinWaitlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resourceID, _ := uuid.Parse(req.ResourceID)
	rng, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := c.coordinator.Add(ctx.Request.Context(), AddInput{
		ResourceID: resourceID,
		Range:      rng,
		Requester:  middleware.Requester(ctx),
		Priority:   req.Priority,
	})
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Joined waitlist", entry)
}

func (c *Controller) Withdraw(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid id")
		return
	}

	if err := c.coordinator.Remove(ctx.Request.Context(), id, middleware.Requester(ctx)); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Withdrawn from waitlist", nil)
}

func (c *Controller) Get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid id")
		return
	}

	entry, err := c.coordinator.Get(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Waitlist entry retrieved", entry)
}

func (c *Controller) List(ctx *gin.Context) {
	var query ListWaitlistQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resourceID, _ := uuid.Parse(query.ResourceID)
	entries, err := c.coordinator.List(ctx.Request.Context(), resourceID, EntryStatus(query.Status))
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Waitlist retrieved", entries)
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
