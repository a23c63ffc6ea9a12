// Package scoring estimates how urgent and how impactful an event is and
// escalates template priorities accordingly.
package scoring

import (
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
)

// RiskLevel is the four-bucket classification of the blended score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

const maxScore = 100

// Analysis is the event-derived assessment shared by every template that
// matches one event. It is stored as audit metadata on notifications.
type Analysis struct {
	Urgency         int       `json:"urgency"`
	Impact          int       `json:"impact"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	Context         Context   `json:"context"`
}

// Context is a descriptive snapshot; nothing downstream decides on it.
type Context struct {
	HourOfDay      int         `json:"hour_of_day"`
	DayOfWeek      int         `json:"day_of_week"`
	UserRole       string      `json:"user_role,omitempty"`
	Department     string      `json:"department,omitempty"`
	System         string      `json:"system,omitempty"`
	PreviousEvents interface{} `json:"previous_events,omitempty"`
}

// Analyze scores ev as of now.
func Analyze(ev *event.Event, now time.Time) Analysis {
	urgency := Urgency(ev)
	impact := Impact(ev)
	score := float64(urgency+impact) / 2
	return Analysis{
		Urgency:         urgency,
		Impact:          impact,
		RiskScore:       score,
		RiskLevel:       Level(score),
		Recommendations: Recommendations(ev),
		Context:         extractContext(ev, now),
	}
}

// Urgency is capped at 100.
func Urgency(ev *event.Event) int {
	u := 0
	if ev.Bool("sla_breach") {
		u += 40
	}
	p, _ := ev.String("priority")
	switch p {
	case "high":
		u += 30
	case "critical":
		u += 50
	}
	if t, _ := ev.String("type"); t == "security" {
		u += 35
	}
	if n, ok := ev.Float("affected_users"); ok && n > 10 {
		u += 20
	}
	if n, ok := ev.Float("financial_impact"); ok && n > 10000 {
		u += 25
	}
	return capScore(u)
}

// Impact is capped at 100.
func Impact(ev *event.Event) int {
	i := 0
	if n, ok := ev.Float("affected_users"); ok && n > 50 {
		i += 30
	}
	if n, ok := ev.Float("financial_impact"); ok && n > 50000 {
		i += 40
	}
	if ev.Bool("compliance_related") {
		i += 25
	}
	if ev.Bool("customer_facing") {
		i += 35
	}
	if ev.Bool("system_critical") {
		i += 45
	}
	return capScore(i)
}

// Level buckets a blended risk score.
func Level(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	}
	return RiskLow
}

// AdjustPriority escalates base according to a. When no threshold fires
// base is returned unchanged, so a template's configured priority is never
// replaced by a synthesized lower value.
func AdjustPriority(base priority.Priority, a Analysis) priority.Priority {
	switch {
	case a.RiskLevel == RiskCritical || a.Urgency >= 80:
		return priority.Urgent
	case a.RiskLevel == RiskHigh || a.Urgency >= 60:
		return priority.High
	case a.RiskLevel == RiskMedium || a.Urgency >= 40:
		return priority.Medium
	}
	return base
}

// Recommendations lists follow-up suggestions for operators.
func Recommendations(ev *event.Event) []string {
	recs := []string{}
	if ev.Bool("sla_breach") {
		recs = append(recs, "review service process", "consider escalating to a senior team")
	}
	if t, _ := ev.String("type"); t == "security" {
		recs = append(recs, "investigate incident origin", "review access logs")
	}
	if p, _ := ev.String("priority"); p == "critical" {
		recs = append(recs, "notify stakeholders immediately", "activate emergency procedure")
	}
	return recs
}

func extractContext(ev *event.Event, now time.Time) Context {
	c := Context{
		HourOfDay: now.Hour(),
		DayOfWeek: int(now.Weekday()),
	}
	c.UserRole, _ = ev.String("user_role")
	c.Department, _ = ev.String("department")
	c.System, _ = ev.String("system")
	if related, ok := ev.Get("related_events"); ok {
		c.PreviousEvents = related
	}
	return c
}

func capScore(v int) int {
	if v > maxScore {
		return maxScore
	}
	return v
}
