package router

import (
	"github.com/gin-gonic/gin"
)

// contactRoutes defines the address-book routes; all require a resolved
// identity and are scoped to the authenticated owner.
func (r *Router) contactRoutes(rg *gin.RouterGroup) {
	contacts := rg.Group("/contacts")
	contacts.Use(r.jwtMw.RequireAuth())
	{
		contacts.GET("", r.contactHandler.List)
		contacts.POST("", r.contactHandler.Create)
		contacts.GET("/search", r.contactHandler.Search)
		contacts.GET("/upcoming-birthdays", r.contactHandler.UpcomingBirthdays)
		contacts.GET("/:id", r.contactHandler.GetByID)
		contacts.PATCH("/:id", r.contactHandler.Update)
		contacts.DELETE("/:id", r.contactHandler.Delete)
	}
}
