package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *JobsHandler, authMiddleware, operatorMiddleware gin.HandlerFunc) {
	group := g.Group("/jobs")
	group.Use(authMiddleware, operatorMiddleware)
	{
		group.POST("/expire-pending", h.ExpirePending)
		group.POST("/send-reminders", h.SendReminders)
	}
}
