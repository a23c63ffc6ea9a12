// Package dispatch renders matched templates into notifications and
// delivers them across the template's channels.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
	"github.com/gyaneshwarpardhi/notifyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
	"github.com/gyaneshwarpardhi/notifyflow/internal/scoring"
	"github.com/gyaneshwarpardhi/notifyflow/internal/store"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

// DefaultChannelTimeout bounds a single channel send when none is configured.
const DefaultChannelTimeout = 10 * time.Second

// Config tunes a Dispatcher.
type Config struct {
	ChannelTimeout time.Duration
	Directory      Directory
}

// Dispatcher fans a notification out to its channels and records the
// outcome. It never returns delivery or persistence errors; they are
// recorded on the notification and logged.
type Dispatcher struct {
	channels  *channel.Registry
	store     store.Store
	directory Directory
	timeout   time.Duration
	now       func() time.Time
}

// New returns a Dispatcher sending through channels and persisting to st.
func New(channels *channel.Registry, st store.Store, cfg Config) *Dispatcher {
	timeout := cfg.ChannelTimeout
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}
	return &Dispatcher{
		channels:  channels,
		store:     st,
		directory: cfg.Directory,
		timeout:   timeout,
		now:       time.Now,
	}
}

type delivery struct {
	status notification.Status
	err    error
}

// Dispatch renders tmpl against ev, persists the pending notification and
// sends it on every channel of tmpl concurrently. Each channel's outcome
// lands in ChannelStatus; Status is the outcome of the last channel in
// template order. A template without channels leaves Status pending.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient string, tmpl template.Template, ev *event.Event, prio priority.Priority, analysis scoring.Analysis) *notification.Notification {
	n := notification.New(recipient, tmpl.ID, tmpl.Channels, d.now())
	n.Title = template.Render(tmpl.Title, ev)
	n.Message = template.Render(tmpl.Message, ev)
	n.Type = string(tmpl.Kind)
	n.Priority = prio
	n.Data = snapshot(ev)
	n.Metadata = notification.Metadata{TemplateName: tmpl.Name, Analysis: analysis}

	// store writes are not cancelled with ctx
	pctx := context.WithoutCancel(ctx)
	if err := d.store.SaveNotification(pctx, n); err != nil {
		d.storeFailed("save", n.ID, err)
	}

	results := make([]delivery, len(n.Channels))
	var wg sync.WaitGroup
	for i, ch := range n.Channels {
		msg := channel.Message{
			NotificationID: n.ID,
			Recipient:      recipient,
			Address:        d.address(ctx, recipient, ch),
			Title:          n.Title,
			Body:           n.Message,
			Type:           n.Type,
			Priority:       string(prio),
		}
		wg.Add(1)
		go func(i int, ch string) {
			defer wg.Done()
			results[i] = d.send(ctx, ch, msg)
			d.recordChannel(pctx, n.ID, ch, results[i])
		}(i, ch)
	}
	wg.Wait()

	if len(results) == 0 {
		return n
	}
	for i, ch := range n.Channels {
		n.ChannelStatus[ch] = results[i].status
		if results[i].err != nil {
			if n.Metadata.ChannelErrors == nil {
				n.Metadata.ChannelErrors = make(map[string]string)
			}
			n.Metadata.ChannelErrors[ch] = results[i].err.Error()
		}
	}
	n.Status = results[len(results)-1].status
	if n.Status == notification.StatusSent {
		t := d.now()
		n.SentAt = &t
	}
	if err := d.store.UpdateStatus(pctx, n.ID, n.Status, n.SentAt); err != nil {
		d.storeFailed("update_status", n.ID, err)
	}
	return n
}

func (d *Dispatcher) send(ctx context.Context, ch string, msg channel.Message) (res delivery) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = delivery{status: notification.StatusFailed, err: fmt.Errorf("channel %s panicked: %v", ch, r)}
		}
		metrics.ChannelDeliveries.WithLabelValues(ch, string(res.status)).Inc()
		metrics.ChannelDeliveryDuration.WithLabelValues(ch).Observe(float64(time.Since(start).Milliseconds()))
		if res.err != nil {
			slog.Warn("channel delivery failed",
				"channel", ch,
				"notification_id", msg.NotificationID,
				"recipient", msg.Recipient,
				"err", res.err,
			)
		}
	}()

	a, err := d.channels.Get(ch)
	if err != nil {
		return delivery{status: notification.StatusFailed, err: err}
	}
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := a.Send(cctx, msg); err != nil {
		return delivery{status: notification.StatusFailed, err: err}
	}
	return delivery{status: notification.StatusSent}
}

// recordChannel persists one channel outcome. It runs on the channel's
// goroutine, so a panicking store is recovered here.
func (d *Dispatcher) recordChannel(ctx context.Context, id, ch string, res delivery) {
	defer func() {
		if r := recover(); r != nil {
			d.storeFailed("update_channel_status", id, fmt.Errorf("store panicked: %v", r))
		}
	}()
	errMsg := ""
	if res.err != nil {
		errMsg = res.err.Error()
	}
	if err := d.store.UpdateChannelStatus(ctx, id, ch, res.status, errMsg); err != nil {
		d.storeFailed("update_channel_status", id, err)
	}
}

func (d *Dispatcher) storeFailed(op, id string, err error) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	slog.Warn("notification store write failed", "op", op, "notification_id", id, "err", err)
}

func snapshot(ev *event.Event) map[string]interface{} {
	if ev == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ev.Fields))
	for k, v := range ev.Fields {
		out[k] = v
	}
	return out
}
