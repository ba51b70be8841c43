package engine

import (
	"testing"

	"gtevents/internal/model"
)

func TestCapacityMetrics(t *testing.T) {
	cases := []struct {
		enrolled, capacity int
		wantPct            int
		wantRemaining      int
		wantStatus         model.FullnessStatus
	}{
		{0, 20, 0, 20, model.FullnessAvailable},
		{13, 20, 65, 7, model.FullnessAvailable},
		{14, 20, 70, 6, model.FullnessFilling},
		{17, 20, 85, 3, model.FullnessFilling},
		{18, 20, 90, 2, model.FullnessFull},
		{20, 20, 100, 0, model.FullnessFull},
		{25, 20, 125, 0, model.FullnessFull},
		{1, 3, 33, 2, model.FullnessAvailable},
	}
	for _, tc := range cases {
		got := CapacityMetrics(tc.enrolled, tc.capacity)
		if got.Percentage != tc.wantPct {
			t.Fatalf("CapacityMetrics(%d, %d) pct = %d, want %d", tc.enrolled, tc.capacity, got.Percentage, tc.wantPct)
		}
		if got.Remaining != tc.wantRemaining {
			t.Fatalf("CapacityMetrics(%d, %d) remaining = %d, want %d", tc.enrolled, tc.capacity, got.Remaining, tc.wantRemaining)
		}
		if got.Status != tc.wantStatus {
			t.Fatalf("CapacityMetrics(%d, %d) status = %q, want %q", tc.enrolled, tc.capacity, got.Status, tc.wantStatus)
		}
	}
}

func TestCapacityMetricsZeroCapacity(t *testing.T) {
	got := CapacityMetrics(5, 0)
	if got.Percentage != 0 {
		t.Fatalf("zero capacity pct = %d, want 0", got.Percentage)
	}
	if got.Remaining != 0 {
		t.Fatalf("zero capacity remaining = %d, want 0", got.Remaining)
	}
	if got.Status != model.FullnessAvailable {
		t.Fatalf("zero capacity status = %q", got.Status)
	}
	if pct := enrollmentPercentage(5, 0); pct != 0 {
		t.Fatalf("enrollmentPercentage(5, 0) = %v, want 0", pct)
	}
}
