package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	// A hall's bookings are for its owner; everyone else sees their own.
	callerID := auth.GetUserID(c)
	if req.HallID != "" {
		if err := h.service.AuthorizeHall(c.Request.Context(), req.HallID, callerID); err != nil {
			response.Error(c, err)
			return
		}
	} else {
		if req.UserID != "" && req.UserID != callerID {
			response.Error(c, booking.ErrForbidden)
			return
		}
		req.UserID = callerID
	}

	filter := booking.Filter{
		HallID:    req.HallID,
		UserID:    req.UserID,
		DateFrom:  req.DateFrom,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: strings.ToUpper(req.SortOrder),
	}
	if req.DateTo != "" {
		// date_to is inclusive for clients.
		filter.DateBefore = calendar.AddDays(req.DateTo, 1)
	}

	today := h.service.Today()
	switch booking.Status(req.Status) {
	case "":
	case booking.StatusCompleted:
		// Completed covers confirmed bookings whose date has passed.
		filter.Statuses = []booking.Status{booking.StatusConfirmed, booking.StatusCompleted}
		if filter.DateBefore == "" || filter.DateBefore > today {
			filter.DateBefore = today
		}
	case booking.StatusConfirmed:
		filter.Statuses = []booking.Status{booking.StatusConfirmed}
		if filter.DateFrom < today {
			filter.DateFrom = today
		}
	default:
		filter.Statuses = []booking.Status{booking.Status(req.Status)}
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeBookingPage(c, bookings, req.Page, req.PageSize, total)
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := booking.CreateRequest{
		HallID: body.HallID,
		Date:   strings.TrimSpace(body.Date),
		Customer: booking.Customer{
			Name:   body.CustomerName,
			Phone:  body.CustomerPhone,
			Email:  body.CustomerEmail,
			UserID: body.CustomerUserID,
		},
		Details: booking.EventDetails{
			EventType:         booking.EventType(body.EventType),
			GuestCount:        body.GuestCount,
			DietaryPreference: booking.DietaryPreference(body.DietaryPreference),
			SpecialRequests:   body.SpecialRequests,
		},
		Financials: booking.Financials{
			TotalAmount:   body.TotalAmount,
			AdvanceAmount: body.AdvanceAmount,
			AdvancePaid:   body.AdvancePaid,
		},
		Notes:       body.Notes,
		RequesterID: auth.GetUserID(c),
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.Authorize(c.Request.Context(), uri.ID, auth.GetUserID(c), booking.ActionView); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Update edits customer and payment fields.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.service.Authorize(c.Request.Context(), uri.ID, auth.GetUserID(c), booking.ActionManage); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.UpdateFields(c.Request.Context(), uri.ID, booking.UpdateFieldsRequest{
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		TotalAmount:   body.TotalAmount,
		AdvanceAmount: body.AdvanceAmount,
		AdvancePaid:   body.AdvancePaid,
		Notes:         body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// UpdateStatus changes a booking's status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Customers may cancel their own booking; anything else is the owner's call.
	action := booking.ActionManage
	if booking.Status(body.Status) == booking.StatusCancelled {
		action = booking.ActionCancel
	}
	if err := h.service.Authorize(c.Request.Context(), uri.ID, auth.GetUserID(c), action); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, booking.Status(body.Status), body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

type hallListFunc func(ctx context.Context, hallID string, page, pageSize int) ([]*booking.Booking, int, error)

func (h *Handler) listForHall(c *gin.Context, list hallListFunc) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hall id"})
		return
	}

	var req HallBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	bookings, total, err := list(c.Request.Context(), uri.ID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeBookingPage(c, bookings, req.Page, req.PageSize, total)
}

// Upcoming lists the hall's confirmed bookings from today on.
func (h *Handler) Upcoming(c *gin.Context) {
	h.listForHall(c, h.service.Upcoming)
}

// Completed lists the hall's past events.
func (h *Handler) Completed(c *gin.Context) {
	h.listForHall(c, h.service.Completed)
}

func (h *Handler) Cancelled(c *gin.Context) {
	h.listForHall(c, h.service.Cancelled)
}

// Summary reports booking counts and revenue for a hall.
func (h *Handler) Summary(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hall id"})
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	s, err := h.service.Summary(c.Request.Context(), booking.SummaryFilter{
		HallID: uri.ID,
		Year:   req.Year,
		Month:  req.Month,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSummaryResponse(s))
}

func writeBookingPage(c *gin.Context, bookings []*booking.Booking, page, pageSize, total int) {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}
