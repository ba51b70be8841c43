// Package snapshots keeps a bounded history of completed analysis passes.
package snapshots

import (
	"sync"
	"time"

	"gtevents/internal/model"
)

type Store struct {
	mu    sync.RWMutex
	buf   []model.Snapshot
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 500
	}
	return &Store{limit: limit}
}

func (s *Store) Add(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, snap)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = snap
}

// Latest returns the most recent snapshot, if any.
func (s *Store) Latest() (model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.buf) == 0 {
		return model.Snapshot{}, false
	}
	return s.buf[len(s.buf)-1], true
}

// List returns up to limit most recent snapshots, oldest first.
func (s *Store) List(limit int) []model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.Snapshot, 0, limit)
	start := len(s.buf) - limit
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *Store) Since(ts time.Time) []model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Snapshot, 0)
	for _, snap := range s.buf {
		if !snap.Timestamp.Before(ts) {
			out = append(out, snap)
		}
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
