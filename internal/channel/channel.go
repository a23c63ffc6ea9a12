// Package channel defines delivery adapters and the registry that maps
// channel ids to them.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownChannel is returned when no adapter is registered for an id.
var ErrUnknownChannel = errors.New("unknown channel")

// Message is one rendered notification addressed to one channel.
type Message struct {
	NotificationID string `json:"notification_id"`
	Recipient      string `json:"recipient"`
	// Address is the channel-specific destination (email address, chat id,
	// phone number). It defaults to the recipient id.
	Address  string `json:"address"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

// Adapter delivers messages over one channel.
type Adapter interface {
	// Channel returns the id this adapter is registered under.
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// Registry maps channel ids to adapters.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate id to surface misconfiguration early.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.Channel()]; exists {
		panic(fmt.Sprintf("channel registry: duplicate channel %q", a.Channel()))
	}
	r.adapters[a.Channel()] = a
}

// Get returns the adapter for id.
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, id)
	}
	return a, nil
}

// Channels returns the registered ids, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
