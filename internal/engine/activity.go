package engine

import (
	"time"

	"gtevents/internal/model"
)

const (
	recentWindow   = 7 * 24 * time.Hour
	velocityWindow = 28 * 24 * time.Hour
)

// RecentActivityFor summarizes enrollment movement from order timestamps:
// enrollments in the trailing week, the most recent enrollment time, and a
// velocity of enrollments per week averaged over the trailing four weeks.
func RecentActivityFor(orders []model.Order, now time.Time) model.RecentActivity {
	weekAgo := now.Add(-recentWindow)
	fourWeeksAgo := now.Add(-velocityWindow)

	recent := 0
	inVelocityWindow := 0
	var last time.Time
	for _, o := range orders {
		if o.Created.IsZero() {
			continue
		}
		if !o.Created.Before(weekAgo) {
			recent++
		}
		if !o.Created.Before(fourWeeksAgo) {
			inVelocityWindow++
		}
		if o.Created.After(last) {
			last = o.Created
		}
	}

	activity := model.RecentActivity{
		RecentEnrollments:  recent,
		EnrollmentVelocity: float64(inVelocityWindow) / 4,
	}
	if !last.IsZero() {
		activity.LastEnrollment = &last
	}
	return activity
}
