package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items []*Notification
}

func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	c := *n
	r.items = append(r.items, &c)
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Notification, int, error) {
	r.mu.RLock()
	var matched []*Notification
	for _, n := range r.items {
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.Read) {
			continue
		}
		c := *n
		matched = append(matched, &c)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

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

func (r *memoryRepository) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}
