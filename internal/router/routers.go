package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/config"
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	"github.com/Payphone-Digital/fleet-registry/internal/handler"
	"github.com/Payphone-Digital/fleet-registry/internal/middleware"
	"github.com/Payphone-Digital/fleet-registry/pkg/metrics"
)

type Router struct {
	vehicleHandler *handler.VehicleHandler
	driverHandler  *handler.DriverHandler
	taskHandler    *handler.ResourceHandler[dto.AssignmentRequest, dto.TaskResponse]
	tripHandler    *handler.ResourceHandler[dto.AssignmentRequest, dto.TripResponse]
	userHandler    *handler.UserHandler
	authHandler    *handler.AuthHandler
	healthHandler  *handler.HealthHandler

	authMw  *middleware.AuthMiddleware
	metrics *metrics.Metrics
	Config  *config.Config
}

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Vehicles *handler.VehicleHandler
	Drivers  *handler.DriverHandler
	Tasks    *handler.ResourceHandler[dto.AssignmentRequest, dto.TaskResponse]
	Trips    *handler.ResourceHandler[dto.AssignmentRequest, dto.TripResponse]
	Users    *handler.UserHandler
	Auth     *handler.AuthHandler
	Health   *handler.HealthHandler
}

func NewRouter(h Handlers, authMw *middleware.AuthMiddleware, m *metrics.Metrics, config *config.Config) *Router {
	return &Router{
		vehicleHandler: h.Vehicles,
		driverHandler:  h.Drivers,
		taskHandler:    h.Tasks,
		tripHandler:    h.Trips,
		userHandler:    h.Users,
		authHandler:    h.Auth,
		healthHandler:  h.Health,

		authMw:  authMw,
		metrics: m,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if !r.Config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestContext())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.CORS())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(http.StatusNotFound, constants.MsgNotFound))
	})

	router.GET("/health", r.healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	v1 := router.Group(constants.APIBasePath)
	{
		limiter := middleware.NewRateLimiter(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second).
			OnRejected(r.metrics.RateLimited.Inc)
		v1.Use(limiter.Middleware())
		v1.Use(middleware.RequestTimeout(r.Config.App.Timeout))

		r.authRoutes(v1)
		r.userRoutes(v1)
		r.fleetRoutes(v1)
	}

	return router
}
