package user

import (
	"context"
	"strings"
)

// Service defines the business logic for the user profile.
type Service interface {
	GetByID(ctx context.Context, id string) (*User, error)
	RegisterPushToken(ctx context.Context, userID, displayName, token string) error
	UnregisterPushToken(ctx context.Context, userID, token string) error
}

type userService struct {
	repo Repository
}

// NewService creates a new user service instance.
func NewService(repo Repository) Service {
	return &userService{repo: repo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) RegisterPushToken(ctx context.Context, userID, displayName, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenRequired
	}
	return s.repo.AddPushToken(ctx, userID, displayName, token)
}

func (s *userService) UnregisterPushToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenRequired
	}
	return s.repo.RemovePushToken(ctx, userID, token)
}
