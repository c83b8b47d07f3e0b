package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

type HallHandler struct {
	service hall.Service
}

func NewHandler(service hall.Service) *HallHandler {
	return &HallHandler{service: service}
}

// List retrieves a paginated list of halls.
func (h *HallHandler) List(c *gin.Context) {
	var req ListHallsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := hall.HallFilter{
		OwnerID:  req.OwnerID,
		City:     req.City,
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	halls, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]HallResponse, len(halls))
	for i, item := range halls {
		items[i] = NewHallResponse(item)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Get returns a hall with its availability sets.
func (h *HallHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hall id"})
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHallResponse(item))
}

// BlockDate takes a date off sale.
func (h *HallHandler) BlockDate(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hall id"})
		return
	}

	var body BlockDateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	item, err := h.service.BlockDate(c.Request.Context(), uri.ID, body.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHallResponse(item))
}

// UnblockDate puts a blocked date back on sale.
func (h *HallHandler) UnblockDate(c *gin.Context) {
	var uri DateURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path parameters", "details": err.Error()})
		return
	}

	item, err := h.service.UnblockDate(c.Request.Context(), uri.ID, uri.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHallResponse(item))
}
