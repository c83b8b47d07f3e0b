package booking

import (
	"context"
	"fmt"
	"time"
)

// EventKind doubles as the message routing key.
type EventKind string

const (
	EventCreated       EventKind = "booking.created"
	EventStatusChanged EventKind = "booking.status_changed"
)

// Event records a committed booking write. Before is nil for EventCreated.
type Event struct {
	Kind       EventKind `json:"kind"`
	Before     *Booking  `json:"before,omitempty"`
	After      *Booking  `json:"after"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives events after the write that produced them has committed.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// EventHandler is implemented by Triggers.
type EventHandler interface {
	Handle(ctx context.Context, ev Event) error
}

// InlineSink runs the handler in the publishing goroutine.
type InlineSink struct {
	handler EventHandler
}

func NewInlineSink(handler EventHandler) *InlineSink {
	return &InlineSink{handler: handler}
}

func (s *InlineSink) Publish(ctx context.Context, ev Event) error {
	return s.handler.Handle(ctx, ev)
}

// StatusChangedEvent builds the event for a committed status transition.
func StatusChangedEvent(before, after *Booking, at time.Time) Event {
	return Event{Kind: EventStatusChanged, Before: before, After: after, OccurredAt: at}
}

func (e Event) String() string {
	if e.After == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.After.ID)
}
