package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentNotice struct {
	UserID, Title, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{userID, title, body})
}

func (n *recordingNotifier) For(userID string) []sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotice
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type recordingSink struct {
	events []booking.Event
}

func (s *recordingSink) Publish(_ context.Context, ev booking.Event) error {
	s.events = append(s.events, ev)
	return nil
}

type stubLocker struct {
	granted bool
	err     error
	keys    []string
}

func (l *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.granted, l.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedBooking(t *testing.T, repo booking.Repository, b *booking.Booking) *booking.Booking {
	t.Helper()
	if b.HallID == "" {
		b.HallID = "hall-1"
	}
	if b.HallName == "" {
		b.HallName = "Tisha Grand Hall"
	}
	b.Customer.Name = "Asha"
	b.Customer.Phone = "9800000000"
	b.Financials = booking.Financials{TotalAmount: 100000, AdvanceAmount: 20000}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestExpireStalePending_Boundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	repo := booking.NewMemoryRepository()
	sink := &recordingSink{}

	fresh := seedBooking(t, repo, &booking.Booking{Date: "2025-02-01", Status: booking.StatusPending,
		CreatedAt: now.Add(-(47*time.Hour + 59*time.Minute))})
	stale := seedBooking(t, repo, &booking.Booking{Date: "2025-02-02", Status: booking.StatusPending,
		CreatedAt: now.Add(-(48*time.Hour + time.Minute))})
	confirmed := seedBooking(t, repo, &booking.Booking{Date: "2025-02-03", Status: booking.StatusConfirmed,
		CreatedAt: now.Add(-72 * time.Hour)})

	j := New(repo, sink, &recordingNotifier{}, nil, Config{PendingTTL: 48 * time.Hour}, zap.NewNop(), WithClock(fixedClock(now)))

	n, err := j.ExpireStalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)

	got, err = repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	assert.Equal(t, "Booking expired — no response within 48 hours", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(now))

	got, err = repo.GetByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, booking.EventStatusChanged, ev.Kind)
	assert.Equal(t, booking.StatusPending, ev.Before.Status)
	assert.Equal(t, booking.StatusCancelled, ev.After.Status)
}

func TestExpireStalePending_NothingToDo(t *testing.T) {
	sink := &recordingSink{}
	j := New(booking.NewMemoryRepository(), sink, &recordingNotifier{}, nil, Config{}, zap.NewNop())

	n, err := j.ExpireStalePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.events)
}

// A pending booking created at 2025-01-01T00:00Z is expired by the run at
// 2025-01-03T00:01Z, and its customer hears about it through the triggers.
func TestRunDailyExpiry_CancelsAndNotifies(t *testing.T) {
	ctx := context.Background()
	halls := hall.NewMemoryRepository(&hall.Hall{ID: "hall-1", OwnerID: "owner", Name: "Tisha Grand Hall",
		AvailableDates: []string{"2025-01-20"}})
	repo := booking.NewMemoryRepository()
	notifier := &recordingNotifier{}
	triggers := booking.NewTriggers(repo, halls, db.NewMemoryTxManager(), notifier, zap.NewNop())

	b := &booking.Booking{Date: "2025-01-20", Status: booking.StatusPending,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	b.Customer.UserID = "cust-1"
	seedBooking(t, repo, b)

	j := New(repo, booking.NewInlineSink(triggers), notifier, NoopLocker{}, Config{PendingTTL: 48 * time.Hour},
		zap.NewNop(), WithClock(fixedClock(time.Date(2025, 1, 3, 0, 1, 0, 0, time.UTC))))

	j.RunDailyExpiry(ctx)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	assert.Equal(t, "Booking expired — no response within 48 hours", got.CancellationReason)

	notes := notifier.For("cust-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Booking Cancelled", notes[0].Title)
	assert.Contains(t, notes[0].Body, "Booking expired")

	h, err := halls.GetByID(ctx, "hall-1")
	require.NoError(t, err)
	assert.Equal(t, hall.DateAvailable, h.StateOf("2025-01-20"))
}

// A booking confirmed between selection and write keeps its confirmation.
func TestExpireStalePending_SkipsBookingConfirmedMeanwhile(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 3, 0, 1, 0, 0, time.UTC)
	repo := booking.NewMemoryRepository()
	b := seedBooking(t, repo, &booking.Booking{Date: "2025-01-20", Status: booking.StatusPending,
		CreatedAt: now.Add(-72 * time.Hour)})

	racing := &confirmingRepository{Repository: repo, target: b.ID}
	sink := &recordingSink{}
	j := New(racing, sink, &recordingNotifier{}, nil, Config{PendingTTL: 48 * time.Hour}, zap.NewNop(), WithClock(fixedClock(now)))

	n, err := j.ExpireStalePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.events)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)
}

// confirmingRepository confirms target right after the stale list is read.
type confirmingRepository struct {
	booking.Repository
	target string
}

func (r *confirmingRepository) ListStalePending(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	stale, err := r.Repository.ListStalePending(ctx, before)
	if err != nil {
		return nil, err
	}
	b, err := r.Repository.GetByID(ctx, r.target)
	if err != nil {
		return nil, err
	}
	b.Status = booking.StatusConfirmed
	if err := r.Repository.UpdateStatus(ctx, b, booking.StatusPending); err != nil {
		return nil, err
	}
	return stale, nil
}

// A confirmed booking dated tomorrow in the venue timezone gets exactly one reminder.
func TestSendNextDayReminders(t *testing.T) {
	ctx := context.Background()
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2025-05-31T20:00Z is already 2025-06-01 in Kolkata, so tomorrow is 2025-06-02.
	now := time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC)
	repo := booking.NewMemoryRepository()

	due := &booking.Booking{Date: "2025-06-02", Status: booking.StatusConfirmed}
	due.Customer.UserID = "cust-1"
	seedBooking(t, repo, due)

	pending := &booking.Booking{Date: "2025-06-02", Status: booking.StatusPending}
	pending.Customer.UserID = "cust-2"
	seedBooking(t, repo, pending)

	later := &booking.Booking{HallID: "hall-2", Date: "2025-06-03", Status: booking.StatusConfirmed}
	later.Customer.UserID = "cust-3"
	seedBooking(t, repo, later)

	notifier := &recordingNotifier{}
	j := New(repo, &recordingSink{}, notifier, nil, Config{Location: kolkata}, zap.NewNop(), WithClock(fixedClock(now)))

	n, err := j.SendNextDayReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	notes := notifier.For("cust-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Reminder: Your Event is Tomorrow! 📅", notes[0].Title)
	assert.Equal(t, "Don't forget - your event at Tisha Grand Hall is tomorrow!", notes[0].Body)
	assert.Empty(t, notifier.For("cust-2"))
	assert.Empty(t, notifier.For("cust-3"))

	got, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)
}

func TestRunLocked(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 3, 30, 0, 0, time.UTC)

	t.Run("skips when another instance holds the lock", func(t *testing.T) {
		repo := booking.NewMemoryRepository()
		b := seedBooking(t, repo, &booking.Booking{Date: "2025-06-10", Status: booking.StatusPending,
			CreatedAt: now.Add(-72 * time.Hour)})
		locker := &stubLocker{granted: false}
		j := New(repo, &recordingSink{}, &recordingNotifier{}, locker, Config{}, zap.NewNop(), WithClock(fixedClock(now)))

		j.RunDailyExpiry(ctx)

		assert.Equal(t, []string{"jobs:expire-pending:2025-06-01T03:30"}, locker.keys)
		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPending, got.Status)
	})

	t.Run("runs when the lock store fails", func(t *testing.T) {
		repo := booking.NewMemoryRepository()
		b := seedBooking(t, repo, &booking.Booking{Date: "2025-06-10", Status: booking.StatusPending,
			CreatedAt: now.Add(-72 * time.Hour)})
		locker := &stubLocker{err: errors.New("redis down")}
		j := New(repo, &recordingSink{}, &recordingNotifier{}, locker, Config{}, zap.NewNop(), WithClock(fixedClock(now)))

		j.RunDailyExpiry(ctx)

		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)
	})
}
