package engine

import (
	"time"

	"gtevents/internal/config"
	"gtevents/internal/model"
	"gtevents/internal/normalize"
)

type CombineOptions struct {
	DefaultCapacity int
	Policy          string
	Now             time.Time
}

func CombineOptionsFrom(cfg config.AnalysisConfig, now time.Time) CombineOptions {
	return CombineOptions{
		DefaultCapacity: cfg.DefaultCapacity,
		Policy:          cfg.DangerZonePolicy,
		Now:             now,
	}
}

// CombineEventData joins the four independently fetched collections into
// unified event records. Orders attach to an event when any line item
// references the event's product id; the first group with a matching event
// id wins. Enrollment is the matched-order count and overrides whatever the
// event record claimed. The join is a pure in-memory pass over fully
// fetched inputs; it never produces a partially merged record.
func CombineEventData(events []model.Event, orders []model.Order, groups []model.Group, contacts []model.Contact, opts CombineOptions) []model.UnifiedEvent {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	contactsByEmail := make(map[string]model.Contact, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			contactsByEmail[c.Email] = c
		}
	}

	unified := make([]model.UnifiedEvent, 0, len(events))
	for _, ev := range events {
		matched := matchOrders(ev, orders)
		group := matchGroup(ev, groups)

		enrolled := len(matched)
		capacity := ev.Capacity
		if capacity <= 0 {
			capacity = opts.DefaultCapacity
		}
		ev.Enrolled = enrolled
		ev.Capacity = capacity

		pct := enrollmentPercentage(enrolled, capacity)

		// A record with no parseable date has no meaningful time-to-event;
		// it stays out of the deadline-driven tiers entirely.
		hasDate := !ev.Date.IsZero()
		days := 0
		dangerZone := model.DangerZone{Level: model.DangerLow, Message: msgHealthy}
		if hasDate {
			days = DaysUntil(ev.Date, now)
			dangerZone = ClassifyDangerZone(pct, days, opts.Policy)
		}

		status := model.StatusActive
		switch {
		case enrolled >= capacity:
			status = model.StatusFull
		case hasDate && pct < 30 && withinDangerWindow(days):
			status = model.StatusAtRisk
		}

		unified = append(unified, model.UnifiedEvent{
			Event:              ev,
			CapacityPercentage: pct,
			Status:             status,
			DangerZone:         dangerZone,
			RecentActivity:     RecentActivityFor(matched, now),
			Orders:             matched,
			Group:              group,
			Students:           students(matched, contactsByEmail),
		})
	}
	return unified
}

func matchOrders(ev model.Event, orders []model.Order) []model.Order {
	if ev.ProductID == "" {
		return nil
	}
	var matched []model.Order
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductID == ev.ProductID {
				matched = append(matched, o)
				break
			}
		}
	}
	return matched
}

func matchGroup(ev model.Event, groups []model.Group) *model.Group {
	for i := range groups {
		if groups[i].EventID == ev.ID {
			return &groups[i]
		}
	}
	return nil
}

// withinDangerWindow reports whether an event is close enough to monitor.
func withinDangerWindow(daysUntilEvent int) bool {
	return daysUntilEvent <= 30
}

// students builds the enrollment roster from order billing identity,
// upgraded to CRM contact data when the email is known there.
func students(orders []model.Order, contactsByEmail map[string]model.Contact) []model.Student {
	roster := normalize.StudentsFromOrders(orders)
	for i, s := range roster {
		if c, ok := contactsByEmail[s.Email]; ok {
			roster[i].Source = "fluentcrm"
			if name := joinName(c.FirstName, c.LastName); name != "" {
				roster[i].Name = name
			}
		}
	}
	return roster
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// MergeLicenseData annotates students with their license type, matched by
// email. Students without a license record get "N/A".
func MergeLicenseData(students []model.Student, licenses []model.License) []model.Student {
	byEmail := make(map[string]string, len(licenses))
	for _, lic := range licenses {
		if lic.Email != "" {
			byEmail[lic.Email] = lic.Type
		}
	}
	out := make([]model.Student, len(students))
	for i, s := range students {
		if t, ok := byEmail[s.Email]; ok && t != "" {
			s.LicenseType = t
		} else {
			s.LicenseType = "N/A"
		}
		out[i] = s
	}
	return out
}
