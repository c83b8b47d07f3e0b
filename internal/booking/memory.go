package booking

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
}

// NewMemoryRepository returns a process-local Repository. The slot uniqueness
// backstop of the SQL schema is not enforced here; the service transaction is.
func NewMemoryRepository() Repository {
	return &memoryRepository{bookings: make(map[string]*Booking)}
}

func (r *memoryRepository) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memoryRepository) selectWhere(match func(b *Booking) bool) []*Booking {
	var out []*Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func oldestFirst(bookings []*Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.RLock()
	matched := r.selectWhere(func(b *Booking) bool {
		switch {
		case filter.HallID != "" && b.HallID != filter.HallID:
			return false
		case filter.UserID != "" && b.Customer.UserID != filter.UserID:
			return false
		case len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, b.Status):
			return false
		case filter.Date != "" && b.Date != filter.Date:
			return false
		case filter.DateFrom != "" && b.Date < filter.DateFrom:
			return false
		case filter.DateBefore != "" && b.Date >= filter.DateBefore:
			return false
		}
		return true
	})
	r.mu.RUnlock()

	key := func(b *Booking) string { return b.Date }
	switch filter.SortBy {
	case "created_at":
		key = func(b *Booking) string { return b.CreatedAt.Format(time.RFC3339Nano) }
	case "total_amount":
		key = func(b *Booking) string { return padAmount(b.Financials.TotalAmount) }
	}
	asc := strings.EqualFold(filter.SortOrder, "ASC")
	sort.SliceStable(matched, func(i, j int) bool {
		ki, kj := key(matched[i]), key(matched[j])
		if ki == kj {
			ki, kj = matched[i].CreatedAt.Format(time.RFC3339Nano), matched[j].CreatedAt.Format(time.RFC3339Nano)
		}
		if asc {
			return ki < kj
		}
		return ki > kj
	})

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	return matched[start:min(start+filter.PageSize, total)], total, nil
}

func (r *memoryRepository) HasConflict(_ context.Context, hallID, date, excludeBookingID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if b.HallID == hallID && b.Date == date && b.Status.Active() && b.ID != excludeBookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) ListBySlot(_ context.Context, hallID, date string, statuses ...Status) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.selectWhere(func(b *Booking) bool {
		return b.HallID == hallID && b.Date == date && (len(statuses) == 0 || slices.Contains(statuses, b.Status))
	})
	oldestFirst(out)
	return out, nil
}

func (r *memoryRepository) ListByDate(_ context.Context, date string, status Status) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.selectWhere(func(b *Booking) bool { return b.Date == date && b.Status == status })
	oldestFirst(out)
	return out, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, b *Booking, from Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != from {
		return ErrStatusChanged
	}
	stored.Status = b.Status
	stored.CancellationReason = b.CancellationReason
	stored.CancelledAt = b.Clone().CancelledAt
	stored.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *memoryRepository) UpdateFields(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Customer.Name = b.Customer.Name
	stored.Customer.Phone = b.Customer.Phone
	stored.Financials = b.Financials
	stored.Notes = b.Notes
	stored.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *memoryRepository) ListStalePending(_ context.Context, createdBefore time.Time) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.selectWhere(func(b *Booking) bool {
		return b.Status == StatusPending && b.CreatedAt.Before(createdBefore)
	})
	oldestFirst(out)
	return out, nil
}

func (r *memoryRepository) ExpirePending(_ context.Context, ids []string, reason string, at time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Booking
	for _, id := range ids {
		b, ok := r.bookings[id]
		if !ok || b.Status != StatusPending {
			continue
		}
		cancelledAt := at
		b.Status = StatusCancelled
		b.CancellationReason = reason
		b.CancelledAt = &cancelledAt
		b.UpdatedAt = at
		expired = append(expired, b.Clone())
	}
	return expired, nil
}

func (r *memoryRepository) Summarize(_ context.Context, filter SummaryFilter) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := summaryPrefix(filter)
	var s Summary
	for _, b := range r.bookings {
		if b.HallID != filter.HallID || !strings.HasPrefix(b.Date, prefix) {
			continue
		}
		s.TotalBookings++
		switch b.Status {
		case StatusConfirmed, StatusCompleted:
			s.ConfirmedBookings++
			s.TotalRevenue += b.Financials.TotalAmount
			s.AdvanceAmount += b.Financials.AdvanceAmount
			if b.Financials.AdvancePaid {
				s.AdvanceCollected += b.Financials.AdvanceAmount
			}
		case StatusCancelled:
			s.CancelledBookings++
		}
	}
	return &s, nil
}

// padAmount makes non-negative amounts sort correctly as strings.
func padAmount(v int64) string {
	return fmt.Sprintf("%020d", v)
}
