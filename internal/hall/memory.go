package hall

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	halls map[string]*Hall
}

// NewMemoryRepository returns a process-local Repository seeded with halls.
// GetForUpdate does not lock; pair it with db.MemoryTxManager.
func NewMemoryRepository(seed ...*Hall) Repository {
	r := &memoryRepository{halls: make(map[string]*Hall)}
	for _, h := range seed {
		_ = r.Create(context.Background(), h)
	}
	return r
}

func (r *memoryRepository) Create(_ context.Context, h *Hall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	r.halls[h.ID] = h.Clone()
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Hall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.halls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return h.Clone(), nil
}

func (r *memoryRepository) GetForUpdate(ctx context.Context, id string) (*Hall, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRepository) List(_ context.Context, filter HallFilter) ([]*Hall, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Hall
	for _, h := range r.halls {
		if filter.OwnerID != "" && h.OwnerID != filter.OwnerID {
			continue
		}
		if filter.City != "" && !strings.EqualFold(h.City, filter.City) {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		matched = append(matched, h.Clone())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

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
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

// mutate applies fn to the stored hall under the write lock.
func (r *memoryRepository) mutate(id string, fn func(h *Hall) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.halls[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(h); err != nil {
		return err
	}
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepository) ClaimDate(_ context.Context, id, date string) error {
	return r.mutate(id, func(h *Hall) error {
		h.AvailableDates = removeDate(h.AvailableDates, date)
		h.BlockedDates = removeDate(h.BlockedDates, date)
		h.BookedDates = addDate(h.BookedDates, date)
		return nil
	})
}

func (r *memoryRepository) ReleaseDate(_ context.Context, id, date string) error {
	return r.mutate(id, func(h *Hall) error {
		h.BookedDates = removeDate(h.BookedDates, date)
		if h.StateOf(date) != DateBlocked {
			h.AvailableDates = addDate(h.AvailableDates, date)
		}
		return nil
	})
}

func (r *memoryRepository) BlockDate(_ context.Context, id, date string) error {
	return r.mutate(id, func(h *Hall) error {
		if h.StateOf(date) == DateBooked {
			return ErrDateBooked
		}
		h.AvailableDates = removeDate(h.AvailableDates, date)
		h.BlockedDates = addDate(h.BlockedDates, date)
		return nil
	})
}

func (r *memoryRepository) UnblockDate(_ context.Context, id, date string) error {
	return r.mutate(id, func(h *Hall) error {
		h.BlockedDates = removeDate(h.BlockedDates, date)
		if h.StateOf(date) != DateBooked {
			h.AvailableDates = addDate(h.AvailableDates, date)
		}
		return nil
	})
}
