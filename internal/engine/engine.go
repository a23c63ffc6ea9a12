package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/notifyflow/internal/config"
	"github.com/gyaneshwarpardhi/notifyflow/internal/dispatch"
	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
	"github.com/gyaneshwarpardhi/notifyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
	"github.com/gyaneshwarpardhi/notifyflow/internal/scoring"
	"github.com/gyaneshwarpardhi/notifyflow/internal/store"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

var (
	// ErrQueueFull is returned when the async queue cannot take more events.
	ErrQueueFull = errors.New("event queue full")
	// ErrNoRecipient is returned for an event without a recipient.
	ErrNoRecipient = errors.New("recipient is required")
)

// Result is the outcome of processing a single event.
type Result struct {
	EventID          string                       `json:"event_id"`
	Recipient        string                       `json:"recipient"`
	DurationMs       int64                        `json:"duration_ms"`
	TemplatesMatched []string                     `json:"templates_matched"`
	Suppressed       []string                     `json:"suppressed,omitempty"`
	Notifications    []*notification.Notification `json:"notifications"`
}

// Engine routes events through the template registry, the scorer, the
// preference filter and the dispatcher.
type Engine struct {
	registry   atomic.Pointer[template.Registry]
	dispatcher *dispatch.Dispatcher
	store      store.Store
	filter     atomic.Pointer[preference.Filter]
	eventPool  *workerPool[*eventWork]
	conf       config.EngineConf
	now        func() time.Time
}

type eventWork struct {
	recipient string
	ev        *event.Event
}

// New creates an Engine using conf and starts its worker pool.
func New(ctx context.Context, reg *template.Registry, d *dispatch.Dispatcher, st store.Store, filter preference.Filter, conf config.EngineConf) *Engine {
	if conf.Workers <= 0 {
		conf.Workers = 1
	}
	e := &Engine{
		dispatcher: d,
		store:      st,
		conf:       conf,
		now:        time.Now,
	}
	e.registry.Store(reg)
	e.filter.Store(&filter)

	e.eventPool = newWorkerPool[*eventWork](ctx, conf.Workers, conf.QueueDepth,
		func(ctx context.Context, w *eventWork) {
			if _, err := e.ProcessEvent(ctx, w.recipient, w.ev); err != nil {
				slog.Warn("queued event rejected", "event_id", w.ev.ID, "err", err)
			}
			metrics.QueueUtilization.Set(e.QueueUtilization())
		},
	)
	return e
}

// SwapRegistry atomically replaces the template catalogue (used on hot-reload).
// Calls already in flight finish on the snapshot they started with.
func (e *Engine) SwapRegistry(reg *template.Registry) {
	e.registry.Store(reg)
}

// Registry returns the current template snapshot.
func (e *Engine) Registry() *template.Registry {
	return e.registry.Load()
}

// SetFilter replaces the preference filter (used on hot-reload).
func (e *Engine) SetFilter(f preference.Filter) {
	e.filter.Store(&f)
}

// ProcessEvent runs ev for recipient synchronously. Every active template
// matching ev yields at most one notification; a template whose final
// priority the recipient's preferences reject is listed in Suppressed.
// Delivery and persistence failures never surface as an error.
func (e *Engine) ProcessEvent(ctx context.Context, recipient string, ev *event.Event) (*Result, error) {
	if recipient == "" {
		return nil, ErrNoRecipient
	}
	if ev == nil {
		ev = event.New(nil)
	}
	start := time.Now()
	stamp(ev, start)

	reg := e.registry.Load()
	filter := e.filter.Load()
	now := e.now()

	matched := reg.Match(ev)
	result := &Result{
		EventID:          ev.ID,
		Recipient:        recipient,
		TemplatesMatched: make([]string, 0, len(matched)),
		Notifications:    make([]*notification.Notification, 0, len(matched)),
	}

	if len(matched) > 0 {
		analysis := scoring.Analyze(ev, now)
		prefs := e.preferences(ctx, recipient)
		for _, t := range matched {
			result.TemplatesMatched = append(result.TemplatesMatched, t.ID)
			metrics.TemplatesMatched.WithLabelValues(t.ID).Inc()

			n, err := e.route(ctx, recipient, t, ev, analysis, prefs, filter, now)
			switch {
			case err != nil:
				slog.Error("template processing failed", "template_id", t.ID, "event_id", ev.ID, "err", err)
			case n == nil:
				result.Suppressed = append(result.Suppressed, t.ID)
				metrics.NotificationsSuppressed.Inc()
			default:
				result.Notifications = append(result.Notifications, n)
				metrics.NotificationsCreated.WithLabelValues(string(n.Priority)).Inc()
			}
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()

	// Metrics.
	metrics.EventsProcessed.Inc()
	metrics.EventProcessingDuration.Observe(float64(result.DurationMs))

	return result, nil
}

// route handles one matched template. A nil notification with a nil error
// means the recipient's preferences suppressed it.
func (e *Engine) route(ctx context.Context, recipient string, t template.Template, ev *event.Event, analysis scoring.Analysis, prefs []preference.Preference, filter *preference.Filter, now time.Time) (n *notification.Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TemplatePanics.WithLabelValues(t.ID).Inc()
			n, err = nil, fmt.Errorf("template %s panicked: %v", t.ID, r)
		}
	}()

	prio := scoring.AdjustPriority(t.BasePriority, analysis)
	if !filter.ShouldSend(prio, prefs, now) {
		slog.Debug("notification suppressed by preferences", "template_id", t.ID, "recipient", recipient, "priority", prio)
		return nil, nil
	}
	return e.dispatcher.Dispatch(ctx, recipient, t, ev, prio, analysis), nil
}

// preferences loads the recipient's preferences once per event. A store
// failure is treated as no preferences on file.
func (e *Engine) preferences(ctx context.Context, recipient string) []preference.Preference {
	prefs, err := e.store.Preferences(ctx, recipient)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("preferences").Inc()
		slog.Warn("preference lookup failed, sending unfiltered", "recipient", recipient, "err", err)
		return nil
	}
	return prefs
}

// Enqueue places an event on the worker queue. Returns false if the queue
// is full or the engine is shutting down.
func (e *Engine) Enqueue(recipient string, ev *event.Event) bool {
	if ev == nil {
		ev = event.New(nil)
	}
	stamp(ev, time.Now())
	if !e.eventPool.Submit(&eventWork{recipient: recipient, ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return true
}

// QueueUtilization returns queue used / capacity (0 to 1).
func (e *Engine) QueueUtilization() float64 {
	if e.eventPool.QueueCap() == 0 {
		return 0
	}
	return float64(e.eventPool.QueueLen()) / float64(e.eventPool.QueueCap())
}

// MarkRead transitions a notification to read. Repeated calls keep it read
// and refresh readAt.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	if err := e.store.MarkRead(ctx, id, e.now()); err != nil {
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	return nil
}

// Shutdown stops accepting events and drains the queue.
func (e *Engine) Shutdown() {
	e.eventPool.Drain()
}

func stamp(ev *event.Event, at time.Time) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = at
	}
}
