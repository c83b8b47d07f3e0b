package notification

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "notification not found")
)

const TypeBooking = "booking"

// Notification is an in-app message. It is stored before any push is attempted,
// so the inbox is complete even when push delivery fails.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	Read      bool
	CreatedAt time.Time
}

// Filter defines parameters for listing a user's notifications.
type Filter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
