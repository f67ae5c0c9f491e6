package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/reset", r.authHandler.RequestReset)
		auth.POST("/reset/:token", r.authHandler.ResetPassword)

		protected := auth.Group("")
		protected.Use(r.authMw.RequireAuth())
		{
			protected.POST("/confirm", r.authHandler.ResendConfirmation)
			protected.POST("/confirm/:token", r.authHandler.Confirm)
			protected.POST("/change-email", r.authHandler.RequestEmailChange)
			protected.POST("/change-email/:token", r.authHandler.ChangeEmail)
			protected.POST("/change-password", r.authHandler.ChangePassword)
		}
	}

	// Token issue accepts email and password only; the handler rejects
	// callers that authenticated with a token.
	version.POST("/tokens", r.authMw.RequireAuth(), r.authHandler.IssueToken)
}
