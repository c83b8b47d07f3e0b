package hall

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "hall not found")
	ErrInvalidDate = apperror.New(http.StatusBadRequest, "Please select a valid date")
	ErrDateBooked  = apperror.New(http.StatusConflict, "This date is already booked")
)

// Hall is a bookable venue together with its per-date availability sets.
// A date appears in at most one of AvailableDates, BookedDates and BlockedDates.
type Hall struct {
	ID             string
	OwnerID        string
	Name           string
	Description    string
	Address        string
	City           string
	Capacity       int
	BasePrice      int64
	IsActive       bool
	AvailableDates []string
	BookedDates    []string
	BlockedDates   []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DateState is the availability of a single date on a hall.
type DateState string

const (
	DateUnlisted  DateState = ""
	DateAvailable DateState = "available"
	DateBooked    DateState = "booked"
	DateBlocked   DateState = "blocked"
)

// StateOf reports which availability set date belongs to.
func (h *Hall) StateOf(date string) DateState {
	switch {
	case slices.Contains(h.BookedDates, date):
		return DateBooked
	case slices.Contains(h.BlockedDates, date):
		return DateBlocked
	case slices.Contains(h.AvailableDates, date):
		return DateAvailable
	}
	return DateUnlisted
}

// Clone returns a deep copy so callers never share the date slices.
func (h *Hall) Clone() *Hall {
	c := *h
	c.AvailableDates = slices.Clone(h.AvailableDates)
	c.BookedDates = slices.Clone(h.BookedDates)
	c.BlockedDates = slices.Clone(h.BlockedDates)
	return &c
}

// HallFilter defines parameters for listing halls.
type HallFilter struct {
	OwnerID  string
	City     string
	Keyword  string // Search in Name
	Page     int
	PageSize int
}

func addDate(dates []string, date string) []string {
	if slices.Contains(dates, date) {
		return dates
	}
	return append(dates, date)
}

func removeDate(dates []string, date string) []string {
	return slices.DeleteFunc(dates, func(d string) bool { return d == date })
}
