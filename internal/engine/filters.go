package engine

import (
	"strings"

	"gtevents/internal/config"
	"gtevents/internal/model"
)

// ExclusionSet holds the event ids and training types the dashboard should
// ignore (cancelled events, retired series). Built once per config load.
type ExclusionSet struct {
	events map[string]struct{}
	types  map[string]struct{}
}

func buildExclusions(cfg *config.Config) *ExclusionSet {
	return &ExclusionSet{
		events: buildSet(cfg.Analysis.ExcludedEvents, false),
		types:  buildSet(cfg.Analysis.ExcludedTypes, true),
	}
}

func buildSet(values []string, fold bool) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if fold {
			v = strings.ToLower(v)
		}
		set[v] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func (x *ExclusionSet) Excluded(ev model.Event) bool {
	if x == nil {
		return false
	}
	if x.events != nil {
		if _, ok := x.events[ev.ID]; ok {
			return true
		}
	}
	if x.types != nil {
		if _, ok := x.types[strings.ToLower(ev.TrainingType)]; ok {
			return true
		}
	}
	return false
}

// Apply drops excluded events, preserving input order.
func (x *ExclusionSet) Apply(events []model.Event) []model.Event {
	if x == nil || (x.events == nil && x.types == nil) {
		return events
	}
	kept := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if x.Excluded(ev) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}
