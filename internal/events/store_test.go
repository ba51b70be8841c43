package events

import (
	"fmt"
	"testing"
	"time"

	"gtevents/internal/model"
)

func unified(id string, date time.Time) model.UnifiedEvent {
	return model.UnifiedEvent{Event: model.Event{ID: id, Date: date}}
}

func TestReplaceAndList(t *testing.T) {
	s := NewStore(0)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	s.Replace([]model.UnifiedEvent{
		unified("b", now.Add(48*time.Hour)),
		unified("a", now.Add(24*time.Hour)),
		unified("c", now.Add(24*time.Hour)),
	})

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	list := s.List()
	if list[0].ID != "a" || list[1].ID != "c" || list[2].ID != "b" {
		t.Fatalf("order = %s,%s,%s", list[0].ID, list[1].ID, list[2].ID)
	}
	if s.UpdatedAt().IsZero() {
		t.Fatal("updatedAt not set")
	}

	if _, ok := s.Get("a"); !ok {
		t.Fatal("Get(a) missing")
	}
	if _, ok := s.Get("zz"); ok {
		t.Fatal("Get(zz) found")
	}
}

func TestReplaceDropsFarthestEvents(t *testing.T) {
	s := NewStore(2)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var in []model.UnifiedEvent
	for i := 0; i < 4; i++ {
		in = append(in, unified(fmt.Sprintf("e%d", i), now.Add(time.Duration(i)*24*time.Hour)))
	}

	s.Replace(in)
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if _, ok := s.Get("e0"); !ok {
		t.Fatal("nearest event dropped")
	}
	if _, ok := s.Get("e3"); ok {
		t.Fatal("farthest event kept")
	}
}

func TestClear(t *testing.T) {
	s := NewStore(0)
	s.Replace([]model.UnifiedEvent{unified("a", time.Now())})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("len after clear = %d", s.Len())
	}
	if !s.UpdatedAt().IsZero() {
		t.Fatal("updatedAt survived clear")
	}
}
