package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"go.uber.org/zap"
)

// Notifier delivers a message to a user. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string)
}

// Triggers react to committed booking writes. Every handler is safe to run
// more than once for the same event: fallible steps run before the first
// notice, so an error returned for redelivery has sent nothing yet.
type Triggers struct {
	bookings Repository
	halls    hall.Repository
	tx       db.TxManager
	sync     *Synchronizer
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewTriggers(bookings Repository, halls hall.Repository, tx db.TxManager, notifier Notifier, log *zap.Logger) *Triggers {
	return &Triggers{
		bookings: bookings,
		halls:    halls,
		tx:       tx,
		sync:     NewSynchronizer(halls, bookings, tx),
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (t *Triggers) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCreated:
		return t.OnBookingCreated(ctx, ev.After)
	case EventStatusChanged:
		return t.OnBookingStatusChanged(ctx, ev.Before, ev.After)
	}
	return fmt.Errorf("unknown booking event %q", ev.Kind)
}

// OnBookingCreated repairs a double booking left by a racing writer, then
// reconciles availability and sends the creation notices.
func (t *Triggers) OnBookingCreated(ctx context.Context, b *Booking) error {
	if b == nil {
		return nil
	}

	holders, err := t.bookings.ListBySlot(ctx, b.HallID, b.Date, StatusPending, StatusConfirmed)
	if err != nil {
		return err
	}
	self := findBooking(holders, b.ID)
	if self == nil {
		// Already cancelled, or a repeat delivery after the race was settled.
		return nil
	}
	if holders[0].ID != b.ID {
		return t.cancelLoser(ctx, self)
	}

	if err := t.sync.Reconcile(ctx, b.HallID, b.Date); err != nil {
		return err
	}
	ownerID, err := t.hallOwner(ctx, b.HallID)
	if err != nil {
		return err
	}

	if b.Status == StatusConfirmed {
		t.notifier.Notify(ctx, b.Customer.UserID, "Booking Confirmed! 🎉",
			fmt.Sprintf("Your booking for %s on %s has been confirmed!", b.HallName, b.Date))
	} else {
		t.notifier.Notify(ctx, b.Customer.UserID, "Booking Received",
			fmt.Sprintf("Your booking for %s on %s has been received and is pending confirmation.", b.HallName, b.Date))
	}
	if ownerID != "" && ownerID != b.Customer.UserID {
		t.notifier.Notify(ctx, ownerID, "New Booking Request",
			fmt.Sprintf("New booking request for %s from %s", b.Date, b.Customer.Name))
	}
	return nil
}

func (t *Triggers) hallOwner(ctx context.Context, hallID string) (string, error) {
	h, err := t.halls.GetByID(ctx, hallID)
	if err != nil {
		if errors.Is(err, hall.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return h.OwnerID, nil
}

// cancelLoser cancels the later of two bookings holding the same slot. The
// cancel and the availability repair share the hall row lock.
func (t *Triggers) cancelLoser(ctx context.Context, loser *Booking) error {
	before := loser.Clone()
	now := t.now().UTC()
	loser.Status = StatusCancelled
	loser.CancellationReason = LostRaceReason
	loser.CancelledAt = &now
	loser.UpdatedAt = now

	err := t.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := t.halls.GetForUpdate(ctx, loser.HallID); err != nil && !errors.Is(err, hall.ErrNotFound) {
			return err
		}
		if err := t.bookings.UpdateStatus(ctx, loser, before.Status); err != nil {
			return err
		}
		return t.sync.Reconcile(ctx, loser.HallID, loser.Date)
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil
		}
		return err
	}
	t.log.Warn("cancelled double booking",
		zap.String("booking_id", loser.ID),
		zap.String("hall_id", loser.HallID),
		zap.String("date", loser.Date),
	)

	t.notifier.Notify(ctx, loser.Customer.UserID, "Booking Unavailable",
		fmt.Sprintf("Sorry, %s is no longer available. Please choose another date.", loser.Date))
	return nil
}

// OnBookingStatusChanged reconciles availability and tells the customer.
func (t *Triggers) OnBookingStatusChanged(ctx context.Context, before, after *Booking) error {
	if before == nil || after == nil || before.Status == after.Status {
		return nil
	}

	if err := t.sync.Reconcile(ctx, after.HallID, after.Date); err != nil {
		return err
	}

	switch after.Status {
	case StatusCancelled:
		reason := after.CancellationReason
		if reason == "" {
			reason = DefaultCancellationReason
		}
		t.notifier.Notify(ctx, after.Customer.UserID, "Booking Cancelled",
			fmt.Sprintf("Your booking for %s on %s has been cancelled: %s", after.HallName, after.Date, reason))
	case StatusConfirmed:
		t.notifier.Notify(ctx, after.Customer.UserID, "Booking Confirmed! 🎉",
			fmt.Sprintf("Your booking for %s on %s has been confirmed!", after.HallName, after.Date))
	case StatusCompleted:
		t.notifier.Notify(ctx, after.Customer.UserID, "Thank You!",
			fmt.Sprintf("We hope you had a wonderful event at %s! We'd love to hear your feedback.", after.HallName))
	}
	return nil
}

func findBooking(bookings []*Booking, id string) *Booking {
	for _, b := range bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}
