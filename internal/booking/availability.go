package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
)

// Synchronizer keeps a hall's date sets in step with the status of the
// bookings on those dates.
type Synchronizer struct {
	halls    hall.Repository
	bookings Repository
	tx       db.TxManager
}

func NewSynchronizer(halls hall.Repository, bookings Repository, tx db.TxManager) *Synchronizer {
	return &Synchronizer{halls: halls, bookings: bookings, tx: tx}
}

// Sync applies the availability change implied by one status transition.
// from is empty for a newly created booking.
//
//	-> confirmed            claim the date
//	confirmed -> cancelled  release the date (stays blocked if blocked)
//	anything else           no change
func (s *Synchronizer) Sync(ctx context.Context, hallID, date string, from, to Status) error {
	var err error
	switch {
	case from == to:
		return nil
	case to == StatusConfirmed:
		err = s.halls.ClaimDate(ctx, hallID, date)
	case from == StatusConfirmed && to == StatusCancelled:
		err = s.halls.ReleaseDate(ctx, hallID, date)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync availability for %s on %s: %w", hallID, date, err)
	}
	return nil
}

// Reconcile derives the date's availability from the bookings that hold it,
// so it gives the same result regardless of how many times or in what order
// it runs. It holds the hall row lock across the read and the write, the
// same lock Create takes, so a booking committed meanwhile is never undone.
//
// A confirmed (or stored completed) booking claims the date. Without one, a
// booked date is released; any other state is left alone, so a pending
// booking never lists a date the owner did not.
func (s *Synchronizer) Reconcile(ctx context.Context, hallID, date string) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		h, err := s.halls.GetForUpdate(ctx, hallID)
		if err != nil {
			if errors.Is(err, hall.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("reconcile availability: %w", err)
		}

		holders, err := s.bookings.ListBySlot(ctx, hallID, date, StatusConfirmed, StatusCompleted)
		if err != nil {
			return fmt.Errorf("reconcile availability: %w", err)
		}

		state := h.StateOf(date)
		switch {
		case len(holders) > 0 && state != hall.DateBooked:
			err = s.halls.ClaimDate(ctx, hallID, date)
		case len(holders) == 0 && state == hall.DateBooked:
			err = s.halls.ReleaseDate(ctx, hallID, date)
		}
		if err != nil {
			return fmt.Errorf("reconcile availability for %s on %s: %w", hallID, date, err)
		}
		return nil
	})
}
