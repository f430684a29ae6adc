// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"reservio/internal/clock"
	"reservio/internal/notifications"
	"reservio/internal/reservations"
	"reservio/internal/resources"
	"reservio/internal/shared/config"
	"reservio/internal/shared/database"
	"reservio/internal/waitlist"
	"reservio/pkg/cache"
	"reservio/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier waitlist.Notifier
	logger   *logger.Logger

	resourceService resources.Service

	// Wired services, exposed so main can hand them to the reaper.
	Engine      reservations.Engine
	Store       reservations.Store
	Coordinator waitlist.Coordinator
}

// NewRouter creates a new router instance. The notifier is optional; a
// nil notifier makes waitlist promotions silent.
func NewRouter(cfg *config.Config, db *database.DB, notifier *notifications.KafkaProducer, appLogger *logger.Logger) *Router {
	r := &Router{
		config: cfg,
		db:     db,
		logger: appLogger,
	}
	if notifier != nil {
		r.notifier = notifier
	}
	r.wireServices()
	return r
}

// wireServices builds the service graph. Attach* setters resolve the
// circular references between resources, reservations and waitlist.
func (r *Router) wireServices() {
	clk := clock.NewSystem()
	slogger := r.logger.Logger

	resourceRepo := resources.NewRepository(r.db.GetPostgreSQL())
	resourceService := resources.NewService(resourceRepo)

	store := reservations.NewGormStore(r.db.GetPostgreSQL())
	engine := reservations.NewEngine(store, resourceService, clk, reservations.EngineConfig{
		DefaultHoldTTL: r.config.Engine.DefaultHoldTTL,
		MaxHoldTTL:     r.config.Engine.MaxHoldTTL,
	}, slogger)

	waitlistRepo := waitlist.NewRepository(r.db.GetPostgreSQL())
	coordinator := waitlist.NewCoordinator(waitlistRepo, engine, r.notifier, clk, waitlist.Config{
		PromotionTTL: r.config.Engine.PromotionTTL,
	}, slogger)

	resources.AttachReservationCounter(resourceService, store)
	reservations.AttachWaitlist(engine, coordinator)
	reservations.AttachReclaimListener(store, coordinator)
	if r.db.Redis != nil {
		reservations.AttachSlotCache(engine, cache.NewSlotCache(r.db.Redis, r.config.Redis.SlotCacheTTL, slogger))
	}

	r.Engine = engine
	r.Store = store
	r.Coordinator = coordinator
	r.resourceService = resourceService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		resources.SetupResourceRoutes(api, resources.NewController(r.resourceService), r.config)
		reservations.SetupReservationRoutes(api, reservations.NewController(r.Engine), r.config)
		waitlist.SetupWaitlistRoutes(api, waitlist.NewController(r.Coordinator), r.config)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "reservio",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "reservio",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
