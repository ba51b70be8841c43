package model

import "time"

type DangerLevel string

const (
	DangerHigh   DangerLevel = "high"
	DangerMedium DangerLevel = "medium"
	DangerLow    DangerLevel = "low"
)

type FullnessStatus string

const (
	FullnessAvailable FullnessStatus = "available"
	FullnessFilling   FullnessStatus = "filling"
	FullnessFull      FullnessStatus = "full"
)

type EventStatus string

const (
	StatusActive EventStatus = "active"
	StatusAtRisk EventStatus = "at-risk"
	StatusFull   EventStatus = "full"
)

// Event is a training event after boundary normalization.
type Event struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id,omitempty"`
	Title        string    `json:"title"`
	TrainingType string    `json:"training_type"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location,omitempty"`
	Instructor   string    `json:"instructor,omitempty"`
	Capacity     int       `json:"capacity"`
	Enrolled     int       `json:"enrolled"`
	Price        float64   `json:"price,omitempty"`
	Instruments  []string  `json:"instruments,omitempty"`
}

type LineItem struct {
	Name      string `json:"name"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type Billing struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Order struct {
	ID      string     `json:"id"`
	Created time.Time  `json:"created"`
	Status  string     `json:"status,omitempty"`
	Items   []LineItem `json:"items"`
	Billing Billing    `json:"billing"`
}

// Group is a LearnDash-style enrollment group tied to one event.
type Group struct {
	ID      string   `json:"id"`
	EventID string   `json:"event_id"`
	Name    string   `json:"name,omitempty"`
	UserIDs []string `json:"user_ids,omitempty"`
}

type Contact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Student is an enrollment record, either from a group roster or
// synthesized from order billing identity as a fallback source.
type Student struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Source      string `json:"source"`
	LicenseType string `json:"license_type,omitempty"`
}

type License struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type CapacityMetrics struct {
	Percentage int            `json:"percentage"`
	Remaining  int            `json:"remaining"`
	Status     FullnessStatus `json:"status"`
	Enrolled   int            `json:"enrolled"`
	Capacity   int            `json:"capacity"`
}

type DangerZone struct {
	Level   DangerLevel `json:"level"`
	Message string      `json:"message"`
}

type RecentActivity struct {
	RecentEnrollments  int        `json:"recent_enrollments"`
	LastEnrollment     *time.Time `json:"last_enrollment,omitempty"`
	EnrollmentVelocity float64    `json:"enrollment_velocity"`
}

// UnifiedEvent is the merged view of one event across all sources.
type UnifiedEvent struct {
	Event
	CapacityPercentage float64        `json:"capacity_percentage"`
	Status             EventStatus    `json:"status"`
	DangerZone         DangerZone     `json:"danger_zone"`
	RecentActivity     RecentActivity `json:"recent_activity"`
	Orders             []Order        `json:"orders,omitempty"`
	Group              *Group         `json:"group,omitempty"`
	Students           []Student      `json:"students,omitempty"`
}

// RiskEvent is a unified event enriched with window-relative risk fields.
type RiskEvent struct {
	UnifiedEvent
	DaysUntilEvent       int     `json:"days_until_event"`
	EnrollmentPercentage float64 `json:"enrollment_percentage"`
	RevenueAtRisk        float64 `json:"revenue_at_risk"`
}

type RiskFactor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Impact      string `json:"impact"`
}

type Recommendation struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type RiskAnalysis struct {
	TimeframeDays      int              `json:"timeframe_days"`
	GeneratedAt        time.Time        `json:"generated_at"`
	HighRisk           []RiskEvent      `json:"high_risk"`
	MediumRisk         []RiskEvent      `json:"medium_risk"`
	LowRisk            []RiskEvent      `json:"low_risk"`
	TotalRevenueAtRisk float64          `json:"total_revenue_at_risk"`
	RiskFactors        []RiskFactor     `json:"risk_factors"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// Snapshot records one completed analysis pass.
type Snapshot struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Analysis  RiskAnalysis `json:"analysis"`
}

type InstrumentSummary struct {
	Summary map[string]int `json:"summary"`
	Total   int            `json:"total"`
}
