package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *HallHandler, authMiddleware, ownerMiddleware gin.HandlerFunc) {
	group := g.Group("/halls")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)                                                    // List halls
		group.GET("/:id", h.Get)                                                 // Get hall with availability
		group.POST("/:id/blocked-dates", ownerMiddleware, h.BlockDate)           // Block a date
		group.DELETE("/:id/blocked-dates/:date", ownerMiddleware, h.UnblockDate) // Unblock a date
	}
}
