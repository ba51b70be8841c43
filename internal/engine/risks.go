package engine

import (
	"fmt"
	"math"
	"time"

	"gtevents/internal/config"
	"gtevents/internal/model"
)

type AnalysisOptions struct {
	Policy                string
	RevenueModel          string
	RevenuePerParticipant float64
	TargetFill            float64
}

func AnalysisOptionsFrom(cfg config.AnalysisConfig) AnalysisOptions {
	return AnalysisOptions{
		Policy:                cfg.DangerZonePolicy,
		RevenueModel:          cfg.RevenueModel,
		RevenuePerParticipant: cfg.RevenuePerParticipant,
		TargetFill:            cfg.TargetFill,
	}
}

// AnalyzeRisks filters events to the [now, now+timeframeDays] window,
// enriches each with days-until-event, enrollment percentage, and revenue
// at risk, partitions them by danger level, and derives the summary risk
// factors and recommended actions. Past events and events beyond the
// window are excluded entirely; they appear in no tier. The headline
// revenue figure counts high-risk events only. Deterministic for a given
// input set and reference time.
func AnalyzeRisks(events []model.UnifiedEvent, timeframeDays int, now time.Time, opts AnalysisOptions) model.RiskAnalysis {
	cutoff := now.Add(time.Duration(timeframeDays) * 24 * time.Hour)

	enhanced := make([]model.RiskEvent, 0, len(events))
	for _, ev := range events {
		if ev.Date.Before(now) || ev.Date.After(cutoff) {
			continue
		}
		enhanced = append(enhanced, enrich(ev, now, opts))
	}

	analysis := model.RiskAnalysis{
		TimeframeDays: timeframeDays,
		GeneratedAt:   now.UTC(),
		HighRisk:      make([]model.RiskEvent, 0),
		MediumRisk:    make([]model.RiskEvent, 0),
		LowRisk:       make([]model.RiskEvent, 0),
	}
	for _, re := range enhanced {
		switch re.UnifiedEvent.DangerZone.Level {
		case model.DangerHigh:
			analysis.HighRisk = append(analysis.HighRisk, re)
		case model.DangerMedium:
			analysis.MediumRisk = append(analysis.MediumRisk, re)
		default:
			analysis.LowRisk = append(analysis.LowRisk, re)
		}
	}
	for _, re := range analysis.HighRisk {
		analysis.TotalRevenueAtRisk += re.RevenueAtRisk
	}
	analysis.RiskFactors = riskFactors(enhanced)
	analysis.Recommendations = recommendations(len(analysis.HighRisk), len(analysis.MediumRisk))
	return analysis
}

func enrich(ev model.UnifiedEvent, now time.Time, opts AnalysisOptions) model.RiskEvent {
	days := DaysUntil(ev.Date, now)
	pct := enrollmentPercentage(ev.Enrolled, ev.Capacity)
	ev.DangerZone = ClassifyDangerZone(pct, days, opts.Policy)
	return model.RiskEvent{
		UnifiedEvent:         ev,
		DaysUntilEvent:       days,
		EnrollmentPercentage: pct,
		RevenueAtRisk:        revenueAtRisk(ev, opts),
	}
}

// DaysUntil counts whole days from now to the event start, rounding up.
// Negative for events already started.
func DaysUntil(eventDate, now time.Time) int {
	return int(math.Ceil(eventDate.Sub(now).Hours() / 24))
}

func revenueAtRisk(ev model.UnifiedEvent, opts AnalysisOptions) float64 {
	shortfall := float64(ev.Capacity)*opts.TargetFill - float64(ev.Enrolled)
	if shortfall < 0 {
		shortfall = 0
	}
	if opts.RevenueModel == config.RevenueModelPrice {
		return shortfall * ev.Price
	}
	return shortfall * opts.RevenuePerParticipant
}

func riskFactors(events []model.RiskEvent) []model.RiskFactor {
	factors := make([]model.RiskFactor, 0, 3)

	lowEnrollment := 0
	approaching := 0
	slowVelocity := 0
	for _, re := range events {
		if re.EnrollmentPercentage < 50 {
			lowEnrollment++
		}
		if re.DaysUntilEvent <= 14 {
			approaching++
		}
		if re.UnifiedEvent.RecentActivity.EnrollmentVelocity < 1 {
			slowVelocity++
		}
	}

	if lowEnrollment > 0 {
		factors = append(factors, model.RiskFactor{
			Name:        "Low Enrollment Rate",
			Description: fmt.Sprintf("%d events below 50%% capacity", lowEnrollment),
			Severity:    "high",
			Impact:      fmt.Sprintf("%d events", lowEnrollment),
		})
	}
	if approaching > 0 {
		factors = append(factors, model.RiskFactor{
			Name:        "Approaching Deadlines",
			Description: fmt.Sprintf("%d events within 14 days", approaching),
			Severity:    "medium",
			Impact:      fmt.Sprintf("%d events", approaching),
		})
	}
	if slowVelocity > 0 {
		factors = append(factors, model.RiskFactor{
			Name:        "Slow Enrollment Velocity",
			Description: fmt.Sprintf("%d events with <1 enrollment/week", slowVelocity),
			Severity:    "medium",
			Impact:      fmt.Sprintf("%d events", slowVelocity),
		})
	}
	return factors
}

func recommendations(highCount, mediumCount int) []model.Recommendation {
	recs := make([]model.Recommendation, 0, 6)
	if highCount > 0 {
		recs = append(recs,
			model.Recommendation{
				Action:      "Emergency Marketing Campaign",
				Description: fmt.Sprintf("Launch targeted ads for %d high-risk events", highCount),
				Priority:    "high",
			},
			model.Recommendation{
				Action:      "Direct Outreach",
				Description: "Contact past participants and leads via phone/email",
				Priority:    "high",
			},
			model.Recommendation{
				Action:      "Consider Discounts",
				Description: "Offer early-bird pricing or group discounts",
				Priority:    "medium",
			},
		)
	}
	if mediumCount > 0 {
		recs = append(recs,
			model.Recommendation{
				Action:      "Email Campaign",
				Description: fmt.Sprintf("Send targeted emails for %d at-risk events", mediumCount),
				Priority:    "medium",
			},
			model.Recommendation{
				Action:      "Social Media Push",
				Description: "Increase social media promotion and engagement",
				Priority:    "medium",
			},
		)
	}
	if highCount > 2 {
		recs = append(recs, model.Recommendation{
			Action:      "Consider Rescheduling",
			Description: "Evaluate moving events to better dates/locations",
			Priority:    "low",
		})
	}
	return recs
}
