package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
)

// userRoutes mounts user administration. The service checks the admin
// flag on every call.
func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/" + constants.RouteUsers)
	users.Use(r.authMw.RequireAuth())
	{
		users.GET("", r.userHandler.GetAll)
		users.GET("/search", r.userHandler.GetAll)
		users.GET("/:id", r.userHandler.GetByID)
		users.POST("", r.userHandler.CreateUser)
		users.PUT("/:id", r.userHandler.UpdateUser)
		users.DELETE("/:id", r.userHandler.DeleteUser)
	}
}
