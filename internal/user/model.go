package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "user not found")
	ErrTokenRequired = apperror.New(http.StatusBadRequest, "push token is required")
)

// User is the profile row keyed by the token subject. Accounts are issued
// elsewhere; this service only keeps contact details and push tokens.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Phone       string
	PushTokens  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
