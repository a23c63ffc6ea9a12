package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/gyaneshwarpardhi/notifyflow/internal/condition"
)

var storeDrivers = map[string]bool{"memory": true, "postgres": true}

var emailProviders = map[string]bool{"ses": true, "resend": true}

// Validate checks the config for:
//   - Duplicate template IDs
//   - Unknown template types, priorities, operators and logical operators
//   - Required fields and consistent store/source settings
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Engine.Workers < 0 || cfg.Engine.QueueDepth < 0 || cfg.Engine.ChannelTimeoutMs < 0 {
		errs = append(errs, "engine: workers, queue_depth and channel_timeout_ms must not be negative")
	}

	if !storeDrivers[cfg.Store.Driver] {
		errs = append(errs, fmt.Sprintf("store: unknown driver %q", cfg.Store.Driver))
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.PostgresDSN == "" {
		errs = append(errs, "store: postgres_dsn is required for the postgres driver")
	}
	if _, err := cron.ParseStandard(cfg.Store.PruneSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("store: prune_schedule %q: %v", cfg.Store.PruneSchedule, err))
	}

	if cfg.Kafka.Enabled && cfg.Kafka.Topic == "" {
		errs = append(errs, "kafka: topic is required when enabled")
	}
	if cfg.NATS.Enabled && cfg.NATS.Subject == "" {
		errs = append(errs, "nats: subject is required when enabled")
	}

	email := cfg.Channels.Email
	if email.Enabled {
		if email.From == "" {
			errs = append(errs, "channels.email: from is required when enabled")
		}
		if !emailProviders[email.Provider] {
			errs = append(errs, fmt.Sprintf("channels.email: unknown provider %q", email.Provider))
		}
		for _, fb := range email.Fallback {
			if !emailProviders[fb] {
				errs = append(errs, fmt.Sprintf("channels.email: unknown fallback provider %q", fb))
			}
		}
	}
	if cfg.Channels.InApp.Enabled && cfg.Store.RedisAddr == "" {
		errs = append(errs, "channels.in_app: store.redis_addr is required when enabled")
	}
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		errs = append(errs, "channels.telegram: token is required when enabled")
	}
	if cfg.Channels.WhatsApp.Enabled && cfg.Channels.WhatsApp.GatewayURL == "" {
		errs = append(errs, "channels.whatsapp: gateway_url is required when enabled")
	}

	ids := make(map[string]int) // id → index
	for i, t := range cfg.Templates {
		if t.ID == "" {
			errs = append(errs, fmt.Sprintf("templates[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("template %s", t.ID)
		if prev, ok := ids[t.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate template id %q (templates[%d] and templates[%d])", t.ID, prev, i))
		} else {
			ids[t.ID] = i
		}
		if !t.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown type %q", loc, t.Kind))
		}
		if !t.BasePriority.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown priority %q", loc, t.BasePriority))
		}
		if t.Message == "" {
			errs = append(errs, fmt.Sprintf("%s: message is required", loc))
		}
		for j, ch := range t.Channels {
			if strings.TrimSpace(ch) == "" {
				errs = append(errs, fmt.Sprintf("%s.channels[%d]: channel id is empty", loc, j))
			}
		}
		validateConditions(t.Conditions, loc, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateConditions(conds []condition.Condition, parent string, errs *[]string) {
	for j, c := range conds {
		loc := fmt.Sprintf("%s.conditions[%d]", parent, j)
		if c.Field == "" {
			*errs = append(*errs, fmt.Sprintf("%s: field is required", loc))
		}
		if !c.Operator.Valid() {
			*errs = append(*errs, fmt.Sprintf("%s: unknown operator %q", loc, c.Operator))
		}
		if !condition.ValidJoin(c.LogicalOperator) {
			*errs = append(*errs, fmt.Sprintf("%s: logical_operator must be AND or OR, got %q", loc, c.LogicalOperator))
		}
	}
}
