package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/handler"
)

func (r *Router) fleetRoutes(version *gin.RouterGroup) {
	auth := r.authMw.RequireAuth()

	vehicles := resourceRoutes(version, auth, r.vehicleHandler.ResourceHandler)
	vehicles.GET("/dropdown", r.vehicleHandler.Dropdown)
	vehicles.GET("/projects", r.vehicleHandler.Projects)

	drivers := resourceRoutes(version, auth, r.driverHandler.ResourceHandler)
	drivers.GET("/dropdown", r.driverHandler.Dropdown)

	resourceRoutes(version, auth, r.taskHandler)
	resourceRoutes(version, auth, r.tripHandler)
}

// resourceRoutes mounts list, search and CRUD for one resource and
// returns its group for extra routes.
func resourceRoutes[Req any, Resp any](version *gin.RouterGroup, auth gin.HandlerFunc, h *handler.ResourceHandler[Req, Resp]) *gin.RouterGroup {
	g := version.Group("/"+h.Route(), auth)
	{
		g.GET("", h.List)
		g.GET("/search", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
	return g
}
