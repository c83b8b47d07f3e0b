package http

import (
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	HallID   string `form:"hall_id" binding:"omitempty,uuid"`
	UserID   string `form:"user_id"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=date created_at total_amount"`
}

type HallBookingsRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

type SummaryRequest struct {
	Year  int `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
}

type CustomerResponse struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

type EventDetailsResponse struct {
	EventType         string `json:"event_type"`
	GuestCount        int    `json:"guest_count"`
	DietaryPreference string `json:"dietary_preference"`
	SpecialRequests   string `json:"special_requests,omitempty"`
}

type FinancialsResponse struct {
	TotalAmount   int64 `json:"total_amount"`
	AdvanceAmount int64 `json:"advance_amount"`
	AdvancePaid   bool  `json:"advance_paid"`
	Discount      int64 `json:"discount"`
	Balance       int64 `json:"balance"`
}

type BookingResponse struct {
	ID                 string               `json:"id"`
	HallID             string               `json:"hall_id"`
	HallName           string               `json:"hall_name"`
	Date               string               `json:"date"`
	Status             string               `json:"status"`
	Customer           CustomerResponse     `json:"customer"`
	EventDetails       EventDetailsResponse `json:"event_details"`
	Financials         FinancialsResponse   `json:"financials"`
	Notes              string               `json:"notes,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:       b.ID,
		HallID:   b.HallID,
		HallName: b.HallName,
		Date:     b.Date,
		Status:   string(b.Status),
		Customer: CustomerResponse{
			Name:   b.Customer.Name,
			Phone:  b.Customer.Phone,
			Email:  b.Customer.Email,
			UserID: b.Customer.UserID,
		},
		EventDetails: EventDetailsResponse{
			EventType:         string(b.Details.EventType),
			GuestCount:        b.Details.GuestCount,
			DietaryPreference: string(b.Details.DietaryPreference),
			SpecialRequests:   b.Details.SpecialRequests,
		},
		Financials: FinancialsResponse{
			TotalAmount:   b.Financials.TotalAmount,
			AdvanceAmount: b.Financials.AdvanceAmount,
			AdvancePaid:   b.Financials.AdvancePaid,
			Discount:      b.Financials.Discount,
			Balance:       b.Financials.TotalAmount - b.Financials.AdvanceAmount,
		},
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
	}
}

type SummaryResponse struct {
	TotalBookings     int   `json:"total_bookings"`
	ConfirmedBookings int   `json:"confirmed_bookings"`
	CancelledBookings int   `json:"cancelled_bookings"`
	TotalRevenue      int64 `json:"total_revenue"`
	AdvanceAmount     int64 `json:"advance_amount"`
	AdvanceCollected  int64 `json:"advance_collected"`
	PendingAmount     int64 `json:"pending_amount"`
}

func NewSummaryResponse(s *booking.Summary) SummaryResponse {
	return SummaryResponse{
		TotalBookings:     s.TotalBookings,
		ConfirmedBookings: s.ConfirmedBookings,
		CancelledBookings: s.CancelledBookings,
		TotalRevenue:      s.TotalRevenue,
		AdvanceAmount:     s.AdvanceAmount,
		AdvanceCollected:  s.AdvanceCollected,
		PendingAmount:     s.TotalRevenue - s.AdvanceCollected,
	}
}

// CreateBookingRequest is the create form. Amount and text rules are checked
// by the service so the client gets the form's own messages.
type CreateBookingRequest struct {
	HallID            string `json:"hall_id" binding:"required,uuid"`
	Date              string `json:"date"`
	CustomerName      string `json:"customer_name"`
	CustomerPhone     string `json:"customer_phone"`
	CustomerEmail     string `json:"customer_email" binding:"omitempty,email"`
	CustomerUserID    string `json:"customer_user_id"`
	EventType         string `json:"event_type"`
	GuestCount        int    `json:"guest_count"`
	DietaryPreference string `json:"dietary_preference"`
	SpecialRequests   string `json:"special_requests"`
	TotalAmount       int64  `json:"total_amount"`
	AdvanceAmount     int64  `json:"advance_amount"`
	AdvancePaid       bool   `json:"advance_paid"`
	Notes             string `json:"notes"`
}

type UpdateBookingRequest struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	TotalAmount   *int64  `json:"total_amount"`
	AdvanceAmount *int64  `json:"advance_amount"`
	AdvancePaid   *bool   `json:"advance_paid"`
	Notes         *string `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
	Reason string `json:"reason"`
}
