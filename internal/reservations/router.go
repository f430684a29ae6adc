package reservations

import (
	"reservio/internal/shared/config"
	"reservio/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	// Slot discovery is readable without authentication.
	rg.GET("/availability/slots", middleware.OptionalAuthWithConfig(cfg), controller.FindSlots)

	holds := rg.Group("/holds")
	holds.Use(middleware.JWTAuthWithConfig(cfg))
	{
		holds.POST("", controller.PlaceHold)            // POST /api/v1/holds
		holds.POST("/:id/confirm", controller.ConfirmHold) // POST /api/v1/holds/:id/confirm
		holds.DELETE("/:id", controller.ReleaseHold)    // DELETE /api/v1/holds/:id
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuthWithConfig(cfg))
	{
		bookings.POST("", controller.BookDirect)             // POST /api/v1/bookings
		bookings.GET("", controller.ListMine)                // GET /api/v1/bookings
		bookings.GET("/:id", controller.Get)                 // GET /api/v1/bookings/:id
		bookings.PATCH("/:id/status", controller.ChangeStatus) // PATCH /api/v1/bookings/:id/status
		bookings.PATCH("/:id/schedule", controller.Reschedule) // PATCH /api/v1/bookings/:id/schedule
		bookings.POST("/:id/cancel", controller.Cancel)      // POST /api/v1/bookings/:id/cancel
	}
}
