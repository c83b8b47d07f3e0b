package http

import (
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// UserResponse represents the user data returned to the client.
type UserResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	PushTokens  int       `json:"push_tokens"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Phone:       u.Phone,
		PushTokens:  len(u.PushTokens),
		CreatedAt:   u.CreatedAt,
	}
}

type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
