// Package maintenance runs scheduled housekeeping against the store.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gyaneshwarpardhi/notifyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/notifyflow/internal/store"
)

const pruneTimeout = 5 * time.Minute

// Pruner deletes read notifications older than the retention window on a
// cron schedule.
type Pruner struct {
	store     store.Store
	retention time.Duration
	now       func() time.Time

	mu sync.Mutex
	c  *cron.Cron
}

// NewPruner schedules pruning with spec, a standard five-field cron
// expression or a descriptor such as "@daily".
func NewPruner(st store.Store, retention time.Duration, spec string) (*Pruner, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %v", retention)
	}
	p := &Pruner{store: st, retention: retention, now: time.Now}
	p.c = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if _, err := p.c.AddFunc(spec, p.runScheduled); err != nil {
		return nil, fmt.Errorf("prune schedule %q: %w", spec, err)
	}
	return p, nil
}

// Start begins the schedule in the background.
func (p *Pruner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.c.Start()
	slog.Info("retention job scheduled", "retention", p.retention, "next_run", p.next())
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	ctx := p.c.Stop()
	p.mu.Unlock()
	<-ctx.Done()
}

// RunOnce deletes read notifications whose readAt lies before now minus
// the retention window.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.PruneRead(ctx, cutoff)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("prune_read").Inc()
		return 0, fmt.Errorf("prune read notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	metrics.NotificationsPruned.Add(float64(n))
	return n, nil
}

func (p *Pruner) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()
	start := time.Now()
	n, err := p.RunOnce(ctx)
	if err != nil {
		slog.Error("retention job failed", "err", err)
		return
	}
	slog.Info("retention job finished", "pruned", n, "duration_ms", time.Since(start).Milliseconds())
}

func (p *Pruner) next() time.Time {
	entries := p.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
