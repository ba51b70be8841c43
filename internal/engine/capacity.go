package engine

import (
	"math"

	"gtevents/internal/model"
)

// CapacityMetrics derives fill metrics for one event. Capacity zero is a
// defined case: percentage is 0, never NaN.
func CapacityMetrics(enrolled, capacity int) model.CapacityMetrics {
	percentage := 0
	if capacity > 0 {
		percentage = int(math.Round(float64(enrolled) / float64(capacity) * 100))
	}
	remaining := capacity - enrolled
	if remaining < 0 {
		remaining = 0
	}
	status := model.FullnessAvailable
	switch {
	case percentage >= 90:
		status = model.FullnessFull
	case percentage >= 70:
		status = model.FullnessFilling
	}
	return model.CapacityMetrics{
		Percentage: percentage,
		Remaining:  remaining,
		Status:     status,
		Enrolled:   enrolled,
		Capacity:   capacity,
	}
}

// enrollmentPercentage is the unrounded fill ratio used by the risk rules.
func enrollmentPercentage(enrolled, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(enrolled) / float64(capacity) * 100
}
