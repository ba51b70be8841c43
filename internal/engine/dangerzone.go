package engine

import (
	"gtevents/internal/config"
	"gtevents/internal/model"
)

const (
	msgCritical = "Critical - Low enrollment with event approaching"
	msgAtRisk   = "At Risk - Low enrollment with event approaching"
	msgWarning  = "Warning - Below target enrollment"
	msgHealthy  = "Healthy - On track"
)

// ClassifyDangerZone assigns a risk tier from enrollment percentage and
// days until the event starts. Rules are evaluated top to bottom, first
// match wins. The function is total: negative day counts classify like any
// other value, callers decide whether past events reach it at all.
//
// Two rule sets exist. The canonical three-rule table:
//
//	high:   <50% and <=14d, or <30% and <=30d
//	medium: <70% and <=30d, or <50% and <=60d
//	low:    otherwise
//
// The two-rule table drops the second clause of each tier; it is the
// coarser legacy behavior, selectable via analysis.danger_zone_policy.
func ClassifyDangerZone(enrollmentPct float64, daysUntilEvent int, policy string) model.DangerZone {
	if policy == config.PolicyTwoRule {
		return classifyTwoRule(enrollmentPct, daysUntilEvent)
	}
	return classifyThreeRule(enrollmentPct, daysUntilEvent)
}

func classifyThreeRule(pct float64, days int) model.DangerZone {
	if (pct < 50 && days <= 14) || (pct < 30 && days <= 30) {
		return model.DangerZone{Level: model.DangerHigh, Message: msgCritical}
	}
	if (pct < 70 && days <= 30) || (pct < 50 && days <= 60) {
		return model.DangerZone{Level: model.DangerMedium, Message: msgWarning}
	}
	return model.DangerZone{Level: model.DangerLow, Message: msgHealthy}
}

func classifyTwoRule(pct float64, days int) model.DangerZone {
	if pct < 50 && days <= 14 {
		return model.DangerZone{Level: model.DangerHigh, Message: msgAtRisk}
	}
	if pct < 70 && days <= 30 {
		return model.DangerZone{Level: model.DangerMedium, Message: msgWarning}
	}
	return model.DangerZone{Level: model.DangerLow, Message: msgHealthy}
}
