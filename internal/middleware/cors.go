package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
)

// CORS allows any origin. Credentials travel in the Authorization header,
// never in cookies.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", constants.HeaderContentType, "Accept",
			constants.HeaderAuthorization, constants.HeaderXRequestID,
		},
		ExposeHeaders: []string{constants.HeaderLocation, constants.HeaderXRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	})
}
