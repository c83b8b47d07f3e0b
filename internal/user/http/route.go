package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware gin.HandlerFunc) {
	me := g.Group("/users/me")
	me.Use(authMiddleware)
	{
		me.GET("", h.Me)
		me.POST("/push-tokens", h.RegisterPushToken)
		me.DELETE("/push-tokens", h.UnregisterPushToken)
	}
}
