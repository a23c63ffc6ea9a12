package template

import (
	"github.com/gyaneshwarpardhi/notifyflow/internal/condition"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
)

// Channel ids used by the built-in catalogue.
const (
	ChannelEmail    = "email"
	ChannelTeams    = "teams"
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
	ChannelInApp    = "in_app"
)

func eq(field string, value interface{}) condition.Condition {
	return condition.Condition{Field: field, Operator: condition.OpEquals, Value: value}
}

// DefaultCatalogue returns the built-in templates in evaluation order.
func DefaultCatalogue() []Template {
	return []Template{
		{
			ID:           "sla_breach",
			Name:         "SLA breach",
			Kind:         KindCritical,
			Title:        "SLA breached - immediate action required",
			Message:      "Request #{id} exceeded its {sla_hours}h SLA. Priority: {priority}",
			BasePriority: priority.Urgent,
			Channels:     []string{ChannelEmail, ChannelTeams, ChannelWhatsApp},
			Conditions:   []condition.Condition{eq("status", "open"), eq("sla_breach", true)},
			Active:       true,
		},
		{
			ID:           "nc_created",
			Name:         "New non-conformity",
			Kind:         KindWarning,
			Title:        "New non-conformity registered",
			Message:      "NC #{id} created by {created_by} in sector {sector}. Type: {type}",
			BasePriority: priority.High,
			Channels:     []string{ChannelEmail, ChannelTeams},
			Conditions:   []condition.Condition{eq("type", "nc"), eq("status", "open")},
			Active:       true,
		},
		{
			ID:           "security_incident",
			Name:         "Security incident",
			Kind:         KindCritical,
			Title:        "Security incident detected",
			Message:      "Suspicious access attempt detected. IP: {ip}, user: {user}",
			BasePriority: priority.Urgent,
			Channels:     []string{ChannelEmail, ChannelTeams, ChannelWhatsApp},
			Conditions: []condition.Condition{
				eq("type", "security"),
				{Field: "severity", Operator: condition.OpIn, Value: []interface{}{"high", "critical"}},
			},
			Active: true,
		},
		{
			ID:           "workflow_completed",
			Name:         "Workflow completed",
			Kind:         KindSuccess,
			Title:        "Workflow completed successfully",
			Message:      `Workflow "{name}" completed in {duration} minutes`,
			BasePriority: priority.Medium,
			Channels:     []string{ChannelEmail, ChannelTeams},
			Conditions:   []condition.Condition{eq("status", "completed"), eq("type", "workflow")},
			Active:       true,
		},
		{
			ID:           "ai_analysis_ready",
			Name:         "Analysis ready",
			Kind:         KindInfo,
			Title:        "Process analysis completed",
			Message:      `Collaborative analysis for project "{project}" is ready for review`,
			BasePriority: priority.Medium,
			Channels:     []string{ChannelEmail, ChannelTeams},
			Conditions:   []condition.Condition{eq("type", "ai_analysis"), eq("status", "completed")},
			Active:       true,
		},
		{
			ID:           "report_delivered",
			Name:         "Report delivered",
			Kind:         KindSuccess,
			Title:        "Report delivered successfully",
			Message:      `Report "{title}" was delivered via {channels} to {recipients}`,
			BasePriority: priority.Low,
			Channels:     []string{ChannelEmail},
			Conditions:   []condition.Condition{eq("type", "report"), eq("status", "delivered")},
			Active:       true,
		},
		{
			ID:           "user_activity_alert",
			Name:         "Activity alert",
			Kind:         KindWarning,
			Title:        "Suspicious activity detected",
			Message:      "User {user} performed {action_count} actions in {timeframe} minutes",
			BasePriority: priority.High,
			Channels:     []string{ChannelEmail, ChannelTeams},
			Conditions:   []condition.Condition{eq("type", "user_activity"), eq("suspicious", true)},
			Active:       true,
		},
		{
			ID:           "system_maintenance",
			Name:         "System maintenance",
			Kind:         KindInfo,
			Title:        "Scheduled maintenance",
			Message:      "System maintenance scheduled for {date} from {start_time} to {end_time}",
			BasePriority: priority.Medium,
			Channels:     []string{ChannelEmail, ChannelTeams},
			Conditions:   []condition.Condition{eq("type", "maintenance"), eq("scheduled", true)},
			Active:       true,
		},
	}
}
