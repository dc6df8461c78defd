package router

import (
	"github.com/gin-gonic/gin"
)

// authRoutes defines signup, verification and session routes
func (r *Router) authRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", r.authHandler.Signup)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.GET("/verify/:token", r.authHandler.VerifyEmail)

		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("/logout", r.authHandler.Logout)
			protected.POST("/avatar", r.authHandler.UploadAvatar)
		}
	}
}
