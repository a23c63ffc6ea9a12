package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Request is an email to be sent.
type Request struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Provider is an email backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *Request) error
	// IsConfigured reports whether the provider has what it needs to send.
	IsConfigured() bool
}

// Providers holds email backends and the order in which they are tried.
type Providers struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewProviders creates an empty provider set.
func NewProviders() *Providers {
	return &Providers{providers: make(map[string]Provider)}
}

// Register adds p, replacing any provider with the same name.
func (r *Providers) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the provider tried first.
func (r *Providers) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("email provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the providers tried, in order, after the primary fails.
func (r *Providers) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("email provider %q not registered", name)
		}
	}
	r.fallback = append([]string(nil), names...)
	return nil
}

// order returns the configured providers in the order they should be tried.
func (r *Providers) order() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	seen := make(map[string]bool)
	for _, name := range append([]string{r.primary}, r.fallback...) {
		p, ok := r.providers[name]
		if !ok || seen[name] || !p.IsConfigured() {
			continue
		}
		seen[name] = true
		out = append(out, p)
	}
	return out
}

// Send tries the primary provider, then each fallback, until one succeeds.
// The primary's error is returned when every provider fails.
func (r *Providers) Send(ctx context.Context, req *Request) error {
	providers := r.order()
	if len(providers) == 0 {
		return errors.New("no configured email provider available")
	}
	var firstErr error
	for i, p := range providers {
		err := p.Send(ctx, req)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(providers) {
			slog.Warn("email provider failed, trying fallback",
				"provider", p.Name(),
				"fallback", providers[i+1].Name(),
				"err", err,
			)
		}
	}
	return firstErr
}
