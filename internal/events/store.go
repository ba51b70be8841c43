// Package events holds the latest unified event set served to the
// dashboard API. Each refresh replaces the whole view; entries are
// request-scoped upstream and never mutated in place here.
package events

import (
	"sort"
	"sync"
	"time"

	"gtevents/internal/model"
)

type Store struct {
	mu        sync.RWMutex
	byID      map[string]model.UnifiedEvent
	updatedAt time.Time
	limit     int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 2000
	}
	return &Store{
		byID:  make(map[string]model.UnifiedEvent),
		limit: limit,
	}
}

// Replace swaps in a freshly merged event set. Excess entries beyond the
// store limit are dropped, farthest-out events first.
func (s *Store) Replace(events []model.UnifiedEvent) {
	if len(events) > s.limit {
		sorted := make([]model.UnifiedEvent, len(events))
		copy(sorted, events)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Date.Before(sorted[j].Date)
		})
		events = sorted[:s.limit]
	}
	byID := make(map[string]model.UnifiedEvent, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = byID
	s.updatedAt = time.Now().UTC()
}

func (s *Store) Get(id string) (model.UnifiedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byID[id]
	return ev, ok
}

// List returns all events ordered by start date.
func (s *Store) List() []model.UnifiedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UnifiedEvent, 0, len(s.byID))
	for _, ev := range s.byID {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]model.UnifiedEvent)
	s.updatedAt = time.Time{}
}
