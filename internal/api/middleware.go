package api

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

// RequireHallOwner ensures the caller owns the hall named by the :id path parameter.
// It MUST be used after auth.AuthRequired middleware.
func RequireHallOwner(hallService hall.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var uri request.ByIDRequest
		if err := c.ShouldBindUri(&uri); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hall id"})
			return
		}

		h, err := hallService.GetByID(c.Request.Context(), uri.ID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if h.OwnerID != userID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: hall owner access required"})
			return
		}

		c.Next()
	}
}

// RequireOperator lets through only the listed user IDs. An empty list
// closes the route to everyone.
// It MUST be used after auth.AuthRequired middleware.
func RequireOperator(operatorIDs []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !slices.Contains(operatorIDs, userID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: operator access required"})
			return
		}

		c.Next()
	}
}
