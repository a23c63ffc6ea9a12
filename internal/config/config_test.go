package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/condition"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

const sampleYAML = `
version: v1
engine:
  workers: 4
preferences:
  wrap_quiet_hours: true
templates:
  - id: disk_full
    name: Disk full
    type: alert
    title: "Disk full on {host}"
    message: "{host} is at {usage}%"
    priority: high
    channels: [email, teams]
    conditions:
      - field: usage
        operator: greater_than
        value: 95
        logical_operator: OR
      - field: disk_full
        operator: equals
        value: true
  - id: retired
    message: "never"
    priority: low
    active: false
`

func TestParse_DefaultsAndTemplates(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 4 || cfg.Engine.QueueDepth != 1000 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.ChannelTimeout() != 10*time.Second {
		t.Errorf("ChannelTimeout = %v", cfg.Engine.ChannelTimeout())
	}
	if !cfg.Engine.DefaultTemplates() {
		t.Error("built-in templates should be on by default")
	}
	if !cfg.Preferences.WrapQuietHours {
		t.Error("wrap_quiet_hours not decoded")
	}
	if cfg.Store.Driver != "memory" || cfg.Store.Retention() != 90*24*time.Hour || cfg.Store.PruneSchedule != "@daily" {
		t.Errorf("store = %+v", cfg.Store)
	}

	if len(cfg.Templates) != 2 {
		t.Fatalf("templates = %d", len(cfg.Templates))
	}
	disk := cfg.Templates[0]
	if !disk.Active || disk.Kind != template.KindAlert || disk.BasePriority != priority.High {
		t.Errorf("disk_full = %+v", disk)
	}
	if len(disk.Conditions) != 2 || disk.Conditions[0].Operator != condition.OpGreaterThan || disk.Conditions[0].LogicalOperator != "OR" {
		t.Errorf("conditions = %+v", disk.Conditions)
	}
	retired := cfg.Templates[1]
	if retired.Active {
		t.Error("explicit active: false must be kept")
	}
	if retired.Kind != template.KindInfo {
		t.Errorf("default kind = %q", retired.Kind)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse_EnvFallbacks(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("AWS_REGION", "eu-west-1")
	cfg, err := Parse([]byte("version: v1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channels.Email.ResendAPIKey != "re_test" || cfg.Channels.Email.Region != "eu-west-1" {
		t.Errorf("email = %+v", cfg.Channels.Email)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("version: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, _ := Parse([]byte(sampleYAML))
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing version", func(c *Config) { c.Version = "" }, "version is required"},
		{"duplicate id", func(c *Config) { c.Templates[1].ID = "disk_full" }, `duplicate template id "disk_full"`},
		{"missing id", func(c *Config) { c.Templates[0].ID = "" }, "templates[0]: id is required"},
		{"bad type", func(c *Config) { c.Templates[0].Kind = "loud" }, `unknown type "loud"`},
		{"bad priority", func(c *Config) { c.Templates[0].BasePriority = "critical" }, `unknown priority "critical"`},
		{"bad operator", func(c *Config) { c.Templates[0].Conditions[0].Operator = "matches" }, `unknown operator "matches"`},
		{"bad join", func(c *Config) { c.Templates[0].Conditions[0].LogicalOperator = "XOR" }, "logical_operator"},
		{"empty channel", func(c *Config) { c.Templates[0].Channels = []string{" "} }, "channel id is empty"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, `unknown driver "mongo"`},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "postgres_dsn is required"},
		{"bad schedule", func(c *Config) { c.Store.PruneSchedule = "every tuesday" }, "prune_schedule"},
		{"in_app without redis", func(c *Config) { c.Channels.InApp.Enabled = true }, "redis_addr is required"},
		{"email without from", func(c *Config) { c.Channels.Email.Enabled = true }, "from is required"},
		{"unknown fallback", func(c *Config) {
			c.Channels.Email.Enabled = true
			c.Channels.Email.From = "a@b.c"
			c.Channels.Email.Fallback = []string{"pigeon"}
		}, `unknown fallback provider "pigeon"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg, _ := Parse([]byte(sampleYAML))
	cfg.Templates[0].Kind = "loud"
	cfg.Templates[1].BasePriority = "meh"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n  - ") != 2 {
		t.Errorf("want two aggregated problems, got:\n%v", err)
	}
}

func TestLoader_ReloadNotifiesAndRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyflow.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}

	var got []*Config
	l.OnChange(func(c *Config) { got = append(got, c) })

	updated := strings.Replace(sampleYAML, "workers: 4", "workers: 2", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := l.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 2 || l.Config().Engine.Workers != 2 || len(got) != 1 {
		t.Errorf("workers = %d, callbacks = %d", l.Config().Engine.Workers, len(got))
	}

	if err := os.WriteFile(path, []byte("engine: {workers: 9}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("reload of config without version should fail")
	}
	if l.Config().Engine.Workers != 2 || len(got) != 1 {
		t.Error("rejected reload must keep the previous config")
	}
}

func TestNewLoader_MissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfig_Registry(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML + `
  - id: sla_breach
    message: "overridden"
    priority: low
`))
	if err != nil {
		t.Fatal(err)
	}
	reg := cfg.Registry()
	if reg.Len() != len(template.DefaultCatalogue())+2 {
		t.Errorf("Len = %d", reg.Len())
	}
	sla, ok := reg.Get("sla_breach")
	if !ok || sla.Message != "overridden" {
		t.Errorf("sla_breach = %+v", sla)
	}
	if all := reg.All(); all[0].ID != "sla_breach" {
		t.Errorf("override should keep catalogue position, first = %s", all[0].ID)
	}

	off := false
	cfg.Engine.UseDefaultTemplates = &off
	if reg := cfg.Registry(); reg.Len() != 3 {
		t.Errorf("without built-ins Len = %d", reg.Len())
	}
}
