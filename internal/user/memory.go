package user

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]*User)}
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	c.PushTokens = slices.Clone(u.PushTokens)
	return &c, nil
}

func (r *memoryRepository) PushTokens(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[userID]; ok {
		return slices.Clone(u.PushTokens), nil
	}
	return nil, nil
}

func (r *memoryRepository) AddPushToken(_ context.Context, userID, displayName, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	u, ok := r.users[userID]
	if !ok {
		u = &User{ID: userID, DisplayName: displayName, CreatedAt: now}
		r.users[userID] = u
	}
	if !slices.Contains(u.PushTokens, token) {
		u.PushTokens = append(u.PushTokens, token)
	}
	u.UpdatedAt = now
	return nil
}

func (r *memoryRepository) RemovePushToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PushTokens = slices.DeleteFunc(u.PushTokens, func(t string) bool { return t == token })
	u.UpdatedAt = time.Now().UTC()
	return nil
}
