package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// A file that fails to parse or validate is logged and the previous
// config stays in effect. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload rejected, keeping previous config", "path", l.path, "err", err)
						continue
					}
					slog.Info("config reloaded", "path", l.path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file. The new config is
// validated before it replaces the current one.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := defaultActive(data, cfg.Templates); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// defaultActive marks templates that omit the active key as active.
func defaultActive(data []byte, templates []template.Template) error {
	var raw struct {
		Templates []map[string]interface{} `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i := range templates {
		if i >= len(raw.Templates) {
			break
		}
		if _, ok := raw.Templates[i]["active"]; !ok {
			templates[i].Active = true
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 1000
	}
	if cfg.Engine.ChannelTimeoutMs == 0 {
		cfg.Engine.ChannelTimeoutMs = 10000
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.PreferenceCacheTTLS == 0 {
		cfg.Store.PreferenceCacheTTLS = 60
	}
	if cfg.Store.RetentionDays == 0 {
		cfg.Store.RetentionDays = 90
	}
	if cfg.Store.PruneSchedule == "" {
		cfg.Store.PruneSchedule = "@daily"
	}

	if cfg.Kafka.Brokers == "" {
		cfg.Kafka.Brokers = "localhost:9092"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "notification.events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "notifyflow"
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "notification.events"
	}
	if cfg.NATS.Queue == "" {
		cfg.NATS.Queue = "notifyflow"
	}

	email := &cfg.Channels.Email
	if email.Provider == "" {
		email.Provider = "ses"
	}
	if email.ResendAPIKey == "" {
		email.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	}
	if email.Region == "" {
		email.Region = os.Getenv("AWS_REGION")
	}
	if email.Region == "" {
		email.Region = "us-east-1"
	}

	for i := range cfg.Templates {
		if cfg.Templates[i].Kind == "" {
			cfg.Templates[i].Kind = template.KindInfo
		}
	}
}
