package resources

import (
	"reservio/internal/shared/config"
	"reservio/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupResourceRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	resources := rg.Group("/resources")
	resources.Use(middleware.JWTAuthWithConfig(cfg))
	{
		resources.POST("", controller.Create)              // POST /api/v1/resources
		resources.GET("", controller.List)                 // GET /api/v1/resources
		resources.GET("/:id", controller.Get)              // GET /api/v1/resources/:id
		resources.PATCH("/:id", controller.Update)         // PATCH /api/v1/resources/:id
		resources.DELETE("/:id", controller.Delete)        // DELETE /api/v1/resources/:id
		resources.POST("/:id/activate", controller.Activate)
		resources.POST("/:id/deactivate", controller.Deactivate)

		// Recurring availability windows
		resources.POST("/:id/windows", controller.AddWindow)
		resources.GET("/:id/windows", controller.ListWindows)
		resources.DELETE("/:id/windows/:windowId", controller.RemoveWindow)

		// Absolute availability exceptions
		resources.POST("/:id/exceptions", controller.AddException)
		resources.GET("/:id/exceptions", controller.ListExceptions)
		resources.DELETE("/:id/exceptions/:exceptionId", controller.RemoveException)
	}
}
