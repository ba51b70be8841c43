package snapshots

import (
	"fmt"
	"testing"
	"time"

	"gtevents/internal/model"
)

func snap(id string, ts time.Time) model.Snapshot {
	return model.Snapshot{ID: id, Timestamp: ts}
}

func TestAddAndLatest(t *testing.T) {
	s := NewStore(0)
	if _, ok := s.Latest(); ok {
		t.Fatal("empty store has latest")
	}

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s.Add(snap("s1", now))
	s.Add(snap("s2", now.Add(time.Minute)))

	latest, ok := s.Latest()
	if !ok || latest.ID != "s2" {
		t.Fatalf("latest = %+v, ok = %v", latest, ok)
	}
}

func TestRingEviction(t *testing.T) {
	s := NewStore(3)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Add(snap(fmt.Sprintf("s%d", i), now.Add(time.Duration(i)*time.Minute)))
	}

	list := s.List(0)
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].ID != "s2" || list[2].ID != "s4" {
		t.Fatalf("window = %s..%s", list[0].ID, list[2].ID)
	}
}

func TestListLimit(t *testing.T) {
	s := NewStore(0)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.Add(snap(fmt.Sprintf("s%d", i), now.Add(time.Duration(i)*time.Minute)))
	}

	list := s.List(2)
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// most recent two, oldest first
	if list[0].ID != "s2" || list[1].ID != "s3" {
		t.Fatalf("list = %s,%s", list[0].ID, list[1].ID)
	}
}

func TestSince(t *testing.T) {
	s := NewStore(0)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.Add(snap(fmt.Sprintf("s%d", i), now.Add(time.Duration(i)*time.Minute)))
	}

	got := s.Since(now.Add(2 * time.Minute))
	if len(got) != 2 {
		t.Fatalf("since = %d, want 2", len(got))
	}
	if got[0].ID != "s2" {
		t.Fatalf("since[0] = %s", got[0].ID)
	}

	s.Clear()
	if got := s.Since(time.Time{}); len(got) != 0 {
		t.Fatalf("after clear = %d", len(got))
	}
}
