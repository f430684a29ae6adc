package reservations

import (
	"errors"
	"net/http"
	"time"

	"reservio/internal/resources"
	"reservio/internal/shared/middleware"
	"reservio/internal/shared/utils/response"
	"reservio/internal/timerange"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	engine Engine
}

func NewController(engine Engine) *Controller {
	return &Controller{engine: engine}
}

// statusFor maps reservation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, resources.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, timerange.ErrInvalidRange), errors.Is(err, ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, ErrOverlap):
		return http.StatusConflict
	case errors.Is(err, ErrHoldExpired):
		return http.StatusGone
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotAHold), errors.Is(err, ErrNotABooking):
		return http.StatusConflict
	case errors.Is(err, ErrResourceInactive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HOLDS

func (c *Controller) PlaceHold(ctx *gin.Context) {
	var req PlaceHoldRequest
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

	ttl := time.Duration(req.TTLSeconds) * time.Second
	hold, err := c.engine.PlaceHold(ctx.Request.Context(), resourceID, rng, middleware.Requester(ctx), ttl)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Hold placed successfully", hold)
}

func (c *Controller) ConfirmHold(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req ConfirmBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	booking, err := c.engine.ConfirmBooking(ctx.Request.Context(), id, req.Title, req.Notes, middleware.Requester(ctx))
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Hold confirmed", booking)
}

func (c *Controller) ReleaseHold(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.engine.ReleaseHold(ctx.Request.Context(), id, middleware.Requester(ctx)); err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Hold released", nil)
}

// BOOKINGS

func (c *Controller) BookDirect(ctx *gin.Context) {
	var req BookDirectRequest
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

	booking, err := c.engine.BookDirect(ctx.Request.Context(), resourceID, rng, middleware.Requester(ctx), req.Title, req.Notes)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Booking created successfully", booking)
}

func (c *Controller) Get(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	reservation, err := c.engine.Get(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Reservation retrieved successfully", reservation)
}

func (c *Controller) ListMine(ctx *gin.Context) {
	var query ListReservationsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	reservations, err := c.engine.ListForRequester(ctx.Request.Context(), middleware.Requester(ctx), query.Limit)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Reservations retrieved successfully", reservations)
}

func (c *Controller) ChangeStatus(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	booking, err := c.engine.ChangeStatus(ctx.Request.Context(), id, Status(req.Status), middleware.Requester(ctx))
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Status updated", booking)
}

func (c *Controller) Reschedule(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	rng, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := c.engine.Reschedule(ctx.Request.Context(), id, rng, middleware.Requester(ctx))
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Booking rescheduled", booking)
}

func (c *Controller) Cancel(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	booking, err := c.engine.Cancel(ctx.Request.Context(), id, middleware.Requester(ctx))
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Booking cancelled", booking)
}

// AVAILABILITY

func (c *Controller) FindSlots(ctx *gin.Context) {
	var query SlotQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.ValidationError(ctx, err.Error())
		return
	}

	resourceID, _ := uuid.Parse(query.ResourceID)
	span, err := parseRange(query.From, query.To)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	duration := time.Duration(query.DurationMinutes) * time.Minute
	slots, err := c.engine.FindAvailableSlots(ctx.Request.Context(), resourceID, span, duration)
	if err != nil {
		response.Error(ctx, statusFor(err), err.Error())
		return
	}

	result := SlotListResponse{ResourceID: query.ResourceID, Slots: make([]SlotResponse, 0, len(slots))}
	for _, slot := range slots {
		result.Slots = append(result.Slots, SlotResponse{StartTime: slot.Start, EndTime: slot.End})
	}
	response.Success(ctx, http.StatusOK, "Slots retrieved successfully", result)
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
