package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "booking not found")
	ErrHallNotFound = apperror.New(http.StatusNotFound, "hall not found")

	ErrDateUnavailable = apperror.New(http.StatusConflict, "This date is already booked")
	ErrDateBlocked     = apperror.New(http.StatusConflict, "This date is not available")
	ErrStatusChanged   = apperror.New(http.StatusConflict, "booking status changed concurrently, please reload")

	ErrForbidden = apperror.New(http.StatusForbidden, "forbidden: you do not have access to this booking")

	ErrInvalidDate         = apperror.New(http.StatusBadRequest, "Please select a valid date")
	ErrPastDate            = apperror.New(http.StatusBadRequest, "Cannot book a past date")
	ErrNameRequired        = apperror.New(http.StatusBadRequest, "Please enter customer name")
	ErrPhoneRequired       = apperror.New(http.StatusBadRequest, "Please enter customer phone")
	ErrInvalidAmount       = apperror.New(http.StatusBadRequest, "Please enter a valid amount")
	ErrAdvanceRequired     = apperror.New(http.StatusBadRequest, "Please enter advance amount")
	ErrAdvanceExceedsTotal = apperror.New(http.StatusBadRequest, "Advance amount cannot exceed total amount")
	ErrInvalidGuestCount   = apperror.New(http.StatusBadRequest, "Please enter a valid guest count")
	ErrInvalidEventType    = apperror.New(http.StatusBadRequest, "invalid event type")
	ErrInvalidDietary      = apperror.New(http.StatusBadRequest, "invalid dietary preference")
	ErrInvalidStatus       = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrInvalidTransition   = apperror.New(http.StatusBadRequest, "invalid status transition")
	ErrNotYetHeld          = apperror.New(http.StatusBadRequest, "a booking can only be completed after its date")
)

const (
	DefaultCancellationReason = "Cancelled by the venue"
	LostRaceReason            = "This date was already booked by another customer."
)

type EventType string

const (
	EventWedding     EventType = "wedding"
	EventReception   EventType = "reception"
	EventBirthday    EventType = "birthday"
	EventCorporate   EventType = "corporate"
	EventEngagement  EventType = "engagement"
	EventAnniversary EventType = "anniversary"
	EventBabyShower  EventType = "babyShower"
	EventOther       EventType = "other"
)

func (e EventType) Valid() bool {
	switch e {
	case EventWedding, EventReception, EventBirthday, EventCorporate,
		EventEngagement, EventAnniversary, EventBabyShower, EventOther:
		return true
	}
	return false
}

type DietaryPreference string

const (
	DietVeg    DietaryPreference = "veg"
	DietNonVeg DietaryPreference = "non-veg"
)

func (d DietaryPreference) Valid() bool {
	return d == DietVeg || d == DietNonVeg
}

type Customer struct {
	Name   string
	Phone  string
	Email  string
	UserID string // app account to notify; empty for walk-in customers
}

type EventDetails struct {
	EventType         EventType
	GuestCount        int
	DietaryPreference DietaryPreference
	SpecialRequests   string
}

// Financials are whole currency units. Nothing here is settled by this service.
type Financials struct {
	TotalAmount   int64
	AdvanceAmount int64
	AdvancePaid   bool
	Discount      int64
}

type Booking struct {
	ID                 string
	HallID             string
	HallName           string
	Date               string // YYYY-MM-DD in the venue timezone
	Status             Status
	Customer           Customer
	Details            EventDetails
	Financials         Financials
	Notes              string
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
}

func (b *Booking) Clone() *Booking {
	c := *b
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

type Filter struct {
	HallID     string
	UserID     string
	Statuses   []Status
	Date       string // exact date
	DateFrom   string // inclusive
	DateBefore string // exclusive
	Page       int
	PageSize   int
	SortBy     string // date, created_at, total_amount
	SortOrder  string // ASC or DESC
}

type SummaryFilter struct {
	HallID string
	Year   int
	Month  int // 1-12, ignored without Year
}

type Summary struct {
	TotalBookings     int
	ConfirmedBookings int
	CancelledBookings int
	TotalRevenue      int64
	AdvanceAmount     int64
	AdvanceCollected  int64
}
