package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

type UserHandler struct {
	service user.Service
}

func NewHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewUserResponse(u))
}

// RegisterPushToken stores a device token for the caller.
func (h *UserHandler) RegisterPushToken(c *gin.Context) {
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.service.RegisterPushToken(c.Request.Context(), auth.GetUserID(c), auth.GetUserName(c), req.Token); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) UnregisterPushToken(c *gin.Context) {
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.service.UnregisterPushToken(c.Request.Context(), auth.GetUserID(c), req.Token); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
