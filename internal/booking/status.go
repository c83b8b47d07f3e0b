package booking

import "slices"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// validTransitions lists the moves allowed from each status.
// Terminal statuses have none.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(validTransitions[s], next)
}

// Active bookings hold their slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// EffectiveStatus reports a confirmed booking whose date has passed as completed.
func (b *Booking) EffectiveStatus(today string) Status {
	if b.Status == StatusConfirmed && b.Date < today {
		return StatusCompleted
	}
	return b.Status
}
