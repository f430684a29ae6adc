package waitlist

import (
	"reservio/internal/shared/config"
	"reservio/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupWaitlistRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	waitlist := rg.Group("/waitlist")
	waitlist.Use(middleware.JWTAuthWithConfig(cfg))
	{
		waitlist.POST("", controller.Join)          // POST /api/v1/waitlist
		waitlist.GET("", controller.List)           // GET /api/v1/waitlist
		waitlist.GET("/:id", controller.Get)        // GET /api/v1/waitlist/:id
		waitlist.DELETE("/:id", controller.Withdraw) // DELETE /api/v1/waitlist/:id
	}
}
