package config

import (
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

// Config is the top-level YAML structure.
type Config struct {
	Version     string                       `yaml:"version"`
	Engine      EngineConf                   `yaml:"engine"`
	Preferences PreferenceConf               `yaml:"preferences"`
	Store       StoreConf                    `yaml:"store"`
	Kafka       KafkaConf                    `yaml:"kafka"`
	NATS        NATSConf                     `yaml:"nats"`
	Channels    ChannelsConf                 `yaml:"channels"`
	Directory   map[string]map[string]string `yaml:"directory"`
	Templates   []template.Template          `yaml:"templates"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers             int   `yaml:"workers"`
	QueueDepth          int   `yaml:"queue_depth"`
	ChannelTimeoutMs    int   `yaml:"channel_timeout_ms"`
	UseDefaultTemplates *bool `yaml:"use_default_templates"`
}

// ChannelTimeout returns the per-channel send bound.
func (e EngineConf) ChannelTimeout() time.Duration {
	return time.Duration(e.ChannelTimeoutMs) * time.Millisecond
}

// DefaultTemplates reports whether the built-in catalogue is loaded ahead
// of the configured templates.
func (e EngineConf) DefaultTemplates() bool {
	return e.UseDefaultTemplates == nil || *e.UseDefaultTemplates
}

// PreferenceConf tunes the preference filter.
type PreferenceConf struct {
	WrapQuietHours bool `yaml:"wrap_quiet_hours"`
}

// StoreConf selects and tunes persistence.
type StoreConf struct {
	Driver              string `yaml:"driver"`
	PostgresDSN         string `yaml:"postgres_dsn"`
	Migrate             bool   `yaml:"migrate"`
	RedisAddr           string `yaml:"redis_addr"`
	PreferenceCacheTTLS int    `yaml:"preference_cache_ttl_s"`
	RetentionDays       int    `yaml:"retention_days"`
	PruneSchedule       string `yaml:"prune_schedule"`
}

// PreferenceCacheTTL returns how long cached preferences live.
func (s StoreConf) PreferenceCacheTTL() time.Duration {
	return time.Duration(s.PreferenceCacheTTLS) * time.Second
}

// Retention returns how long read notifications are kept.
func (s StoreConf) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// KafkaConf configures the Kafka event source.
type KafkaConf struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

// NATSConf configures the NATS event source.
type NATSConf struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

// ChannelsConf configures each delivery channel.
type ChannelsConf struct {
	Email    EmailConf    `yaml:"email"`
	Teams    TeamsConf    `yaml:"teams"`
	WhatsApp WhatsAppConf `yaml:"whatsapp"`
	Telegram TelegramConf `yaml:"telegram"`
	InApp    InAppConf    `yaml:"in_app"`
}

// EmailConf configures the email channel and its providers.
type EmailConf struct {
	Enabled      bool     `yaml:"enabled"`
	RatePerSec   float64  `yaml:"rate_per_sec"`
	From         string   `yaml:"from"`
	Provider     string   `yaml:"provider"`
	Fallback     []string `yaml:"fallback"`
	Region       string   `yaml:"region"`
	ResendAPIKey string   `yaml:"resend_api_key"`
}

// TeamsConf configures the team-chat webhook channel.
type TeamsConf struct {
	Enabled    bool    `yaml:"enabled"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	WebhookURL string  `yaml:"webhook_url"`
}

// WhatsAppConf configures the messaging gateway channel.
type WhatsAppConf struct {
	Enabled    bool    `yaml:"enabled"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	GatewayURL string  `yaml:"gateway_url"`
	Token      string  `yaml:"token"`
}

// TelegramConf configures the Telegram bot channel.
type TelegramConf struct {
	Enabled    bool    `yaml:"enabled"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Token      string  `yaml:"token"`
}

// InAppConf configures the in-app feed channel. It publishes through
// store.redis_addr.
type InAppConf struct {
	Enabled    bool    `yaml:"enabled"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}
