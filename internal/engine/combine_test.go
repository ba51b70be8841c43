package engine

import (
	"testing"
	"time"

	"gtevents/internal/model"
)

func combineFixture(now time.Time) ([]model.Event, []model.Order, []model.Group, []model.Contact) {
	events := []model.Event{
		{ID: "101", ProductID: "501", Title: "Essential Training - Denver", Date: now.Add(20 * 24 * time.Hour), Capacity: 20},
		{ID: "102", ProductID: "502", Title: "Advanced Training - Chicago", Date: now.Add(10 * 24 * time.Hour), Capacity: 0},
		{ID: "103", Title: "Virtual Refresher", Date: now.Add(40 * 24 * time.Hour), Capacity: 10},
	}
	orders := []model.Order{
		{ID: "o1", Created: now.Add(-2 * 24 * time.Hour), Items: []model.LineItem{{Name: "Seat", ProductID: "501", Quantity: 1}},
			Billing: model.Billing{FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com"}},
		{ID: "o2", Created: now.Add(-10 * 24 * time.Hour), Items: []model.LineItem{{Name: "Seat", ProductID: "501", Quantity: 1}},
			Billing: model.Billing{FirstName: "Lee", Email: "lee@example.com"}},
		{ID: "o3", Created: now.Add(-1 * 24 * time.Hour), Items: []model.LineItem{{Name: "Seat", ProductID: "999", Quantity: 1}}},
	}
	groups := []model.Group{
		{ID: "g1", EventID: "101", Name: "Denver Cohort"},
		{ID: "g2", EventID: "101", Name: "Denver Overflow"},
	}
	contacts := []model.Contact{
		{ID: "c1", Email: "dana@example.com", FirstName: "Dana", LastName: "Reyes-Ortiz"},
	}
	return events, orders, groups, contacts
}

func TestCombineEventDataJoin(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	events, orders, groups, contacts := combineFixture(now)

	unified := CombineEventData(events, orders, groups, contacts, CombineOptions{DefaultCapacity: 20, Now: now})
	if len(unified) != 3 {
		t.Fatalf("unified count = %d, want 3", len(unified))
	}

	denver := unified[0]
	if denver.Enrolled != 2 {
		t.Fatalf("denver enrolled = %d, want 2", denver.Enrolled)
	}
	if len(denver.Orders) != 2 {
		t.Fatalf("denver orders = %d", len(denver.Orders))
	}
	if denver.CapacityPercentage != 10 {
		t.Fatalf("denver pct = %v, want 10", denver.CapacityPercentage)
	}
	// first group with a matching event id wins
	if denver.Group == nil || denver.Group.ID != "g1" {
		t.Fatalf("denver group = %+v", denver.Group)
	}
	if denver.Status != model.StatusAtRisk {
		t.Fatalf("denver status = %q, want at-risk", denver.Status)
	}
}

func TestCombineEventDataDefaultCapacityAndNoOrders(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	events, orders, groups, contacts := combineFixture(now)

	unified := CombineEventData(events, orders, groups, contacts, CombineOptions{DefaultCapacity: 20, Now: now})

	chicago := unified[1]
	if chicago.Capacity != 20 {
		t.Fatalf("chicago capacity = %d, want default 20", chicago.Capacity)
	}
	if chicago.Enrolled != 0 {
		t.Fatalf("chicago enrolled = %d, want 0", chicago.Enrolled)
	}
	if chicago.Status == model.StatusFull {
		t.Fatal("zero-order event reported as full")
	}

	// events without a product id never match orders
	virtual := unified[2]
	if virtual.Enrolled != 0 || len(virtual.Orders) != 0 {
		t.Fatalf("virtual matched orders: %+v", virtual.Orders)
	}
	if virtual.Group != nil {
		t.Fatalf("virtual group = %+v", virtual.Group)
	}
	// 40 days out and 0% enrolled: outside the 30-day at-risk window
	if virtual.Status != model.StatusActive {
		t.Fatalf("virtual status = %q, want active", virtual.Status)
	}
}

func TestCombineEventDataStudentsUpgradedFromContacts(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	events, orders, groups, contacts := combineFixture(now)

	unified := CombineEventData(events, orders, groups, contacts, CombineOptions{DefaultCapacity: 20, Now: now})
	students := unified[0].Students
	if len(students) != 2 {
		t.Fatalf("students = %d, want 2", len(students))
	}

	bySource := make(map[string]model.Student)
	for _, s := range students {
		bySource[s.Source] = s
	}
	crm, ok := bySource["fluentcrm"]
	if !ok {
		t.Fatalf("no CRM-upgraded student in %+v", students)
	}
	if crm.Name != "Dana Reyes-Ortiz" {
		t.Fatalf("crm student name = %q", crm.Name)
	}
	if _, ok := bySource["woocommerce"]; !ok {
		t.Fatalf("no order-sourced student in %+v", students)
	}
}

func TestCombineEventDataFullStatus(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	events := []model.Event{{ID: "1", ProductID: "p1", Date: now.Add(5 * 24 * time.Hour), Capacity: 2}}
	orders := []model.Order{
		{ID: "o1", Items: []model.LineItem{{ProductID: "p1"}}},
		{ID: "o2", Items: []model.LineItem{{ProductID: "p1"}}},
	}
	unified := CombineEventData(events, orders, nil, nil, CombineOptions{DefaultCapacity: 20, Now: now})
	if unified[0].Status != model.StatusFull {
		t.Fatalf("status = %q, want full", unified[0].Status)
	}
}

func TestCombineEventDataDatelessEvent(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	// no date on the record: nothing deadline-driven may fire, even at 0%
	events := []model.Event{{ID: "1", ProductID: "p1", Capacity: 20}}
	unified := CombineEventData(events, nil, nil, nil, CombineOptions{DefaultCapacity: 20, Now: now})

	if unified[0].Status != model.StatusActive {
		t.Fatalf("dateless status = %q, want active", unified[0].Status)
	}
	if unified[0].DangerZone.Level != model.DangerLow {
		t.Fatalf("dateless danger level = %q, want low", unified[0].DangerZone.Level)
	}
	if unified[0].DangerZone.Message != msgHealthy {
		t.Fatalf("dateless danger message = %q", unified[0].DangerZone.Message)
	}

	// a full dateless event still reports full
	orders := []model.Order{
		{ID: "o1", Items: []model.LineItem{{ProductID: "p1"}}},
	}
	events[0].Capacity = 1
	unified = CombineEventData(events, orders, nil, nil, CombineOptions{DefaultCapacity: 20, Now: now})
	if unified[0].Status != model.StatusFull {
		t.Fatalf("full dateless status = %q", unified[0].Status)
	}
}

func TestMergeLicenseData(t *testing.T) {
	students := []model.Student{
		{Name: "Dana", Email: "dana@example.com"},
		{Name: "Lee", Email: "lee@example.com"},
	}
	licenses := []model.License{{Email: "dana@example.com", Type: "DC"}}

	merged := MergeLicenseData(students, licenses)
	if merged[0].LicenseType != "DC" {
		t.Fatalf("dana license = %q, want DC", merged[0].LicenseType)
	}
	if merged[1].LicenseType != "N/A" {
		t.Fatalf("lee license = %q, want N/A", merged[1].LicenseType)
	}
	// input untouched
	if students[0].LicenseType != "" {
		t.Fatal("MergeLicenseData mutated its input")
	}
}

func TestRecentActivityFor(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	orders := []model.Order{
		{ID: "o1", Created: now.Add(-2 * 24 * time.Hour)},
		{ID: "o2", Created: now.Add(-6 * 24 * time.Hour)},
		{ID: "o3", Created: now.Add(-20 * 24 * time.Hour)},
		{ID: "o4", Created: now.Add(-40 * 24 * time.Hour)},
		{ID: "o5"},
	}

	activity := RecentActivityFor(orders, now)
	if activity.RecentEnrollments != 2 {
		t.Fatalf("recent = %d, want 2", activity.RecentEnrollments)
	}
	if activity.EnrollmentVelocity != 0.75 {
		t.Fatalf("velocity = %v, want 0.75", activity.EnrollmentVelocity)
	}
	if activity.LastEnrollment == nil || !activity.LastEnrollment.Equal(now.Add(-2*24*time.Hour)) {
		t.Fatalf("last enrollment = %v", activity.LastEnrollment)
	}

	empty := RecentActivityFor(nil, now)
	if empty.LastEnrollment != nil || empty.RecentEnrollments != 0 || empty.EnrollmentVelocity != 0 {
		t.Fatalf("empty activity = %+v", empty)
	}
}
