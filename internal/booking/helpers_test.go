package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testHallID  = "hall-1"
	testOwnerID = "owner-1"
	testDate    = "2025-06-01"
)

type notice struct {
	UserID, Title, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notice{userID, title, body})
}

func (n *recordingNotifier) For(userID string) []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notice
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	halls    hall.Repository
	repo     Repository
	tx       db.TxManager
	notifier *recordingNotifier
	triggers *Triggers
	clock    *clock
	svc      Service
}

type fixtureOption func(f *fixture)

// withRepo wraps the booking store seen by the service and the triggers.
func withRepo(wrap func(Repository) Repository) fixtureOption {
	return func(f *fixture) { f.repo = wrap(f.repo) }
}

func withHalls(wrap func(hall.Repository) hall.Repository) fixtureOption {
	return func(f *fixture) { f.halls = wrap(f.halls) }
}

// newFixture builds a service over memory stores with today = 2025-05-01.
func newFixture(t *testing.T, cfg Config, basePrice int64, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		halls: hall.NewMemoryRepository(&hall.Hall{
			ID:             testHallID,
			OwnerID:        testOwnerID,
			Name:           "Tisha Grand Hall",
			BasePrice:      basePrice,
			IsActive:       true,
			AvailableDates: calendar.Range("2025-05-01", 60),
		}),
		repo:     NewMemoryRepository(),
		tx:       db.NewMemoryTxManager(),
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.triggers = NewTriggers(f.repo, f.halls, f.tx, f.notifier, zap.NewNop())
	f.svc = NewService(f.repo, f.halls, f.tx, NewInlineSink(f.triggers), cfg, zap.NewNop(),
		WithClock(f.clock.Now))
	return f
}

func (f *fixture) hall(t *testing.T) *hall.Hall {
	t.Helper()
	h, err := f.halls.GetByID(context.Background(), testHallID)
	require.NoError(t, err)
	return h
}

func validRequest(date, userID string) CreateRequest {
	return CreateRequest{
		HallID: testHallID,
		Date:   date,
		Customer: Customer{
			Name:   "Asha Rao",
			Phone:  "9800000000",
			UserID: userID,
		},
		Details: EventDetails{EventType: EventWedding, GuestCount: 300},
		Financials: Financials{
			TotalAmount:   100000,
			AdvanceAmount: 25000,
		},
	}
}
