package hall

import (
	"context"
	"fmt"

	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
)

type Service interface {
	GetByID(ctx context.Context, id string) (*Hall, error)
	List(ctx context.Context, filter HallFilter) ([]*Hall, int, error)
	BlockDate(ctx context.Context, id, date string) (*Hall, error)
	UnblockDate(ctx context.Context, id, date string) (*Hall, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Hall, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter HallFilter) ([]*Hall, int, error) {
	return s.repo.List(ctx, filter)
}

// BlockDate takes a date off sale. Booked dates cannot be blocked.
func (s *service) BlockDate(ctx context.Context, id, date string) (*Hall, error) {
	if !calendar.Valid(date) {
		return nil, ErrInvalidDate
	}
	if err := s.repo.BlockDate(ctx, id, date); err != nil {
		return nil, fmt.Errorf("block date: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) UnblockDate(ctx context.Context, id, date string) (*Hall, error) {
	if !calendar.Valid(date) {
		return nil, ErrInvalidDate
	}
	if err := s.repo.UnblockDate(ctx, id, date); err != nil {
		return nil, fmt.Errorf("unblock date: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}
