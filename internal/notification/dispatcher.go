package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenSource resolves the push tokens registered for a user and forgets
// the ones the push backend rejects.
type TokenSource interface {
	PushTokens(ctx context.Context, userID string) ([]string, error)
	RemovePushToken(ctx context.Context, userID, token string) error
}

// RetryConfig bounds push retries.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// Dispatcher stores a notification and then pushes it in the background.
// Notify never returns an error; every failure is logged.
type Dispatcher struct {
	repo   Repository
	tokens TokenSource
	pusher Pusher
	retry  RetryConfig
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(repo Repository, tokens TokenSource, pusher Pusher, retry RetryConfig, log *zap.Logger) *Dispatcher {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Dispatcher{repo: repo, tokens: tokens, pusher: pusher, retry: retry, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, userID, title, body string) {
	if userID == "" {
		d.log.Debug("notification without recipient dropped", zap.String("title", title))
		return
	}

	n := &Notification{
		UserID:  userID,
		Title:   title,
		Message: body,
		Type:    TypeBooking,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		d.log.Error("store notification failed", zap.String("user_id", userID), zap.Error(err))
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.push(context.WithoutCancel(ctx), userID, title, body)
	}()
}

// Wait blocks until in-flight pushes finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) push(ctx context.Context, userID, title, body string) {
	tokens, err := d.tokens.PushTokens(ctx, userID)
	if err != nil {
		d.log.Warn("lookup push tokens failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	interval := d.retry.InitialInterval
	var res PushResult
	for attempt := 1; ; attempt++ {
		res = d.pusher.Push(ctx, tokens, title, body)
		d.forget(ctx, userID, res.Invalid)
		if len(res.Retry) == 0 {
			return
		}
		if attempt >= d.retry.MaxAttempts {
			break
		}
		// Devices already reached are not sent the message again.
		tokens = res.Retry
		d.log.Debug("push failed, retrying",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Int("tokens", len(tokens)),
			zap.Duration("backoff", interval),
			zap.Error(res.Err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * d.retry.Multiplier)
		if d.retry.MaxInterval > 0 && interval > d.retry.MaxInterval {
			interval = d.retry.MaxInterval
		}
	}
	d.log.Error("push delivery failed",
		zap.String("user_id", userID),
		zap.Int("attempts", d.retry.MaxAttempts),
		zap.Int("tokens", len(res.Retry)),
		zap.Error(res.Err),
	)
}

// forget drops tokens the backend rejected for good.
func (d *Dispatcher) forget(ctx context.Context, userID string, tokens []string) {
	for _, token := range tokens {
		if err := d.tokens.RemovePushToken(ctx, userID, token); err != nil {
			d.log.Warn("remove rejected push token failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		d.log.Info("removed rejected push token", zap.String("user_id", userID))
	}
}
