package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, ev booking.Event) error

func (f handlerFunc) Handle(ctx context.Context, ev booking.Event) error { return f(ctx, ev) }

func encode(t *testing.T, ev booking.Event) []byte {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return body
}

func TestHandleDelivery(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()
	ev := booking.Event{
		Kind:       booking.EventCreated,
		After:      &booking.Booking{ID: "b1", HallID: "h1", Date: "2025-06-01", Status: booking.StatusConfirmed},
		OccurredAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	failing := handlerFunc(func(context.Context, booking.Event) error { return errors.New("store unavailable") })

	t.Run("handled events are acked", func(t *testing.T) {
		var got booking.Event
		h := handlerFunc(func(_ context.Context, e booking.Event) error {
			got = e
			return nil
		})

		assert.Equal(t, ack, handleDelivery(ctx, h, encode(t, ev), false, log))
		assert.Equal(t, booking.EventCreated, got.Kind)
		require.NotNil(t, got.After)
		assert.Equal(t, "b1", got.After.ID)
		assert.Equal(t, booking.StatusConfirmed, got.After.Status)
		assert.Nil(t, got.Before)
	})

	t.Run("first failure is requeued", func(t *testing.T) {
		assert.Equal(t, requeue, handleDelivery(ctx, failing, encode(t, ev), false, log))
	})

	t.Run("redelivered failure is dropped", func(t *testing.T) {
		assert.Equal(t, drop, handleDelivery(ctx, failing, encode(t, ev), true, log))
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		assert.Equal(t, drop, handleDelivery(ctx, failing, []byte("{not json"), false, log))
	})
}
