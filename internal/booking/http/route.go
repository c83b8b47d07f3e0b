package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, ownerMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.PATCH("/:id/status", h.UpdateStatus)
	}

	// === Hall Owner Routes ===
	halls := g.Group("/halls")
	halls.Use(authMiddleware, ownerMiddleware)
	{
		halls.GET("/:id/bookings/upcoming", h.Upcoming)
		halls.GET("/:id/bookings/completed", h.Completed)
		halls.GET("/:id/bookings/cancelled", h.Cancelled)
		halls.GET("/:id/summary", h.Summary)
	}
}
