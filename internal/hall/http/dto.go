package http

import (
	"slices"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
)

type HallResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	Capacity       int       `json:"capacity"`
	BasePrice      int64     `json:"base_price"`
	IsActive       bool      `json:"is_active"`
	AvailableDates []string  `json:"available_dates"`
	BookedDates    []string  `json:"booked_dates"`
	BlockedDates   []string  `json:"blocked_dates"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewHallResponse(h *hall.Hall) HallResponse {
	return HallResponse{
		ID:             h.ID,
		OwnerID:        h.OwnerID,
		Name:           h.Name,
		Description:    h.Description,
		Address:        h.Address,
		City:           h.City,
		Capacity:       h.Capacity,
		BasePrice:      h.BasePrice,
		IsActive:       h.IsActive,
		AvailableDates: sortedDates(h.AvailableDates),
		BookedDates:    sortedDates(h.BookedDates),
		BlockedDates:   sortedDates(h.BlockedDates),
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}

func sortedDates(dates []string) []string {
	out := slices.Clone(dates)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return out
}

type ListHallsRequest struct {
	OwnerID  string `form:"owner_id"`
	City     string `form:"city"`
	Keyword  string `form:"q"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

type BlockDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type DateURIRequest struct {
	ID   string `uri:"id" binding:"required,uuid"`
	Date string `uri:"date" binding:"required"`
}
