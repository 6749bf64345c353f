// Package memory provides in-process stores for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventnotifier/internal/domain"
)

// UserRepository keeps users in a map with a secondary index by zone.
type UserRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.User
	byZone map[string]map[string]struct{}
}

// NewUserRepository returns an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[string]*domain.User),
		byZone: make(map[string]map[string]struct{}),
	}
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrDuplicateUser
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.index(cp.TimeZone, cp.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) ListByTimeZone(_ context.Context, zone string) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byZone[zone]
	users := make([]*domain.User, 0, len(ids))
	for id := range ids {
		cp := *r.byID[id]
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) UpdateTimeZone(_ context.Context, id, zone string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.unindex(u.TimeZone, id)
	u.TimeZone = zone
	u.UpdatedAt = updatedAt
	r.index(zone, id)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.unindex(u.TimeZone, id)
	delete(r.byID, id)
	return nil
}

func (r *UserRepository) index(zone, id string) {
	set, ok := r.byZone[zone]
	if !ok {
		set = make(map[string]struct{})
		r.byZone[zone] = set
	}
	set[id] = struct{}{}
}

func (r *UserRepository) unindex(zone, id string) {
	if set, ok := r.byZone[zone]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byZone, zone)
		}
	}
}
