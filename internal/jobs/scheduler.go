package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the daily jobs on cron schedules in the venue timezone.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(ctx context.Context, j *Jobs, expirySpec, reminderSpec string, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(expirySpec, func() { j.RunDailyExpiry(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", JobExpirePending, err)
	}
	if _, err := c.AddFunc(reminderSpec, func() { j.RunDailyReminders(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", JobSendReminders, err)
	}

	log.Info("jobs scheduled",
		zap.String("expiry", expirySpec),
		zap.String("reminders", reminderSpec),
		zap.String("timezone", loc.String()),
	)
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and returns a context that is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
