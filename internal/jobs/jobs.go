package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
	"go.uber.org/zap"
)

const (
	JobExpirePending = "expire-pending"
	JobSendReminders = "send-reminders"

	// A run that takes the lock keeps it until it expires, so a second replica
	// firing on the same schedule tick finds it held.
	lockTTL = time.Hour
)

type Config struct {
	PendingTTL time.Duration
	Location   *time.Location
}

// Jobs holds the periodic maintenance work.
type Jobs struct {
	bookings booking.Repository
	sink     booking.EventSink
	notifier booking.Notifier
	locker   Locker
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Jobs)

func WithClock(now func() time.Time) Option {
	return func(j *Jobs) { j.now = now }
}

func New(bookings booking.Repository, sink booking.EventSink, notifier booking.Notifier, locker Locker, cfg Config, log *zap.Logger, opts ...Option) *Jobs {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 48 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	j := &Jobs{
		bookings: bookings,
		sink:     sink,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ExpiryReason is stored on bookings cancelled by ExpireStalePending.
func (j *Jobs) ExpiryReason() string {
	return fmt.Sprintf("Booking expired — no response within %d hours", int(j.cfg.PendingTTL.Hours()))
}

// ExpireStalePending cancels pending bookings created more than PendingTTL ago.
// A booking confirmed while the job runs is left alone.
func (j *Jobs) ExpireStalePending(ctx context.Context) (int, error) {
	now := j.now().UTC()
	cutoff := now.Add(-j.cfg.PendingTTL)

	stale, err := j.bookings.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		j.log.Info("no stale pending bookings", zap.Time("cutoff", cutoff))
		return 0, nil
	}

	before := make(map[string]*booking.Booking, len(stale))
	ids := make([]string, len(stale))
	for i, b := range stale {
		ids[i] = b.ID
		before[b.ID] = b
	}

	expired, err := j.bookings.ExpirePending(ctx, ids, j.ExpiryReason(), now)
	if err != nil {
		return 0, err
	}

	for _, after := range expired {
		prev, ok := before[after.ID]
		if !ok {
			continue
		}
		ev := booking.StatusChangedEvent(prev, after, now)
		if err := j.sink.Publish(context.WithoutCancel(ctx), ev); err != nil {
			j.log.Error("publish expiry event failed", zap.String("booking_id", after.ID), zap.Error(err))
		}
	}

	j.log.Info("expired stale pending bookings",
		zap.Int("selected", len(stale)),
		zap.Int("expired", len(expired)),
	)
	return len(expired), nil
}

// SendNextDayReminders notifies the customer of every confirmed booking dated
// tomorrow in the venue timezone.
func (j *Jobs) SendNextDayReminders(ctx context.Context) (int, error) {
	tomorrow := calendar.AddDays(calendar.Today(j.now(), j.cfg.Location), 1)

	bookings, err := j.bookings.ListByDate(ctx, tomorrow, booking.StatusConfirmed)
	if err != nil {
		return 0, err
	}

	for _, b := range bookings {
		j.notifier.Notify(ctx, b.Customer.UserID, "Reminder: Your Event is Tomorrow! 📅",
			fmt.Sprintf("Don't forget - your event at %s is tomorrow!", b.HallName))
	}

	j.log.Info("sent event reminders", zap.String("date", tomorrow), zap.Int("count", len(bookings)))
	return len(bookings), nil
}

// RunDailyExpiry is the scheduled entry point for ExpireStalePending.
func (j *Jobs) RunDailyExpiry(ctx context.Context) {
	j.runLocked(ctx, JobExpirePending, j.ExpireStalePending)
}

// RunDailyReminders is the scheduled entry point for SendNextDayReminders.
func (j *Jobs) RunDailyReminders(ctx context.Context) {
	j.runLocked(ctx, JobSendReminders, j.SendNextDayReminders)
}

func (j *Jobs) runLocked(ctx context.Context, name string, run func(context.Context) (int, error)) {
	key := lockKey(name, j.now().In(j.cfg.Location))
	ok, err := j.locker.TryLock(ctx, key, lockTTL)
	if err != nil {
		j.log.Warn("job lock unavailable, running anyway", zap.String("job", name), zap.Error(err))
	} else if !ok {
		j.log.Info("job already ran on another instance", zap.String("job", name), zap.String("key", key))
		return
	}

	start := j.now()
	n, err := run(ctx)
	if err != nil {
		j.log.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	j.log.Info("job finished",
		zap.String("job", name),
		zap.Int("affected", n),
		zap.Duration("duration", j.now().Sub(start)),
	)
}

func lockKey(name string, at time.Time) string {
	return "jobs:" + name + ":" + at.Format("2006-01-02T15:04")
}
