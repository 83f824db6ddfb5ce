package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/amenity-reservation/internal/model"
)

// MemoryStore keeps reservations and items in maps guarded by a RWMutex.
// It backs STORE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]model.Reservation
	items        map[uuid.UUID]model.SchedulerItem
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: make(map[uuid.UUID]model.Reservation),
		items:        make(map[uuid.UUID]model.SchedulerItem),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateReservation(_ context.Context, r model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; ok {
		return ErrConflict
	}
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id uuid.UUID) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) UpdateReservation(_ context.Context, r model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; !ok {
		return ErrNotFound
	}
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) DeleteReservation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *MemoryStore) ListReservations(_ context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	s.mu.RLock()
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *MemoryStore) CreateItem(_ context.Context, it model.SchedulerItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.items {
		if other.ID == it.ID || (other.ResourceType == it.ResourceType && other.Item == it.Item) {
			return ErrConflict
		}
	}
	s.items[it.ID] = copyItem(it)
	return nil
}

func (s *MemoryStore) GetItem(_ context.Context, id uuid.UUID) (model.SchedulerItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return model.SchedulerItem{}, ErrNotFound
	}
	return copyItem(it), nil
}

func (s *MemoryStore) FindItem(_ context.Context, t model.ResourceType, name string) (model.SchedulerItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ResourceType == t && it.Item == name {
			return copyItem(it), nil
		}
	}
	return model.SchedulerItem{}, ErrNotFound
}

func (s *MemoryStore) UpdateItem(_ context.Context, it model.SchedulerItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return ErrNotFound
	}
	for _, other := range s.items {
		if other.ID != it.ID && other.ResourceType == it.ResourceType && other.Item == it.Item {
			return ErrConflict
		}
	}
	s.items[it.ID] = copyItem(it)
	return nil
}

func (s *MemoryStore) ListItems(_ context.Context, t model.ResourceType, onlyInService bool) ([]model.SchedulerItem, error) {
	s.mu.RLock()
	out := make([]model.SchedulerItem, 0, len(s.items))
	for _, it := range s.items {
		if t != "" && it.ResourceType != t {
			continue
		}
		if onlyInService && !it.Offerable() {
			continue
		}
		out = append(out, copyItem(it))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResourceType != out[j].ResourceType {
			return out[i].ResourceType < out[j].ResourceType
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

func copyItem(it model.SchedulerItem) model.SchedulerItem {
	if it.Description != nil {
		v := *it.Description
		it.Description = &v
	}
	if it.ServiceNotes != nil {
		v := *it.ServiceNotes
		it.ServiceNotes = &v
	}
	return it
}
