package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*notification.Notification
	seq           map[string]int
	next          int
	prefs         map[string][]preference.Preference
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*notification.Notification),
		seq:           make(map[string]int),
		prefs:         make(map[string][]preference.Preference),
	}
}

func (m *MemoryStore) SaveNotification(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[n.ID]; !ok {
		m.seq[n.ID] = m.next
		m.next++
	}
	m.notifications[n.ID] = n.Clone()
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status notification.Status, sentAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if n.Status != notification.StatusRead {
		n.Status = status
	}
	if sentAt != nil {
		t := *sentAt
		n.SentAt = &t
	}
	return nil
}

func (m *MemoryStore) UpdateChannelStatus(_ context.Context, id, channel string, status notification.Status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if n.ChannelStatus == nil {
		n.ChannelStatus = make(map[string]notification.Status)
	}
	n.ChannelStatus[channel] = status
	if errMsg != "" {
		if n.Metadata.ChannelErrors == nil {
			n.Metadata.ChannelErrors = make(map[string]string)
		}
		n.Metadata.ChannelErrors[channel] = errMsg
	}
	return nil
}

func (m *MemoryStore) MarkRead(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	n.MarkRead(at)
	return nil
}

func (m *MemoryStore) GetNotification(_ context.Context, id string) (*notification.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return n.Clone(), nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, recipient string, limit int) ([]*notification.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*notification.Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	if l := listLimit(limit); len(out) > l {
		out = out[:l]
	}
	for i, n := range out {
		out[i] = n.Clone()
	}
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, recipient string) (notification.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := notification.NewStats()
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			s.Add(n)
		}
	}
	return s, nil
}

func (m *MemoryStore) Preferences(_ context.Context, recipient string) ([]preference.Preference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]preference.Preference(nil), m.prefs[recipient]...), nil
}

func (m *MemoryStore) SetPreferences(_ context.Context, recipient string, prefs []preference.Preference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(prefs) == 0 {
		delete(m.prefs, recipient)
		return nil
	}
	m.prefs[recipient] = append([]preference.Preference(nil), prefs...)
	return nil
}

func (m *MemoryStore) PruneRead(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, nt := range m.notifications {
		if nt.Status == notification.StatusRead && nt.ReadAt != nil && nt.ReadAt.Before(olderThan) {
			delete(m.notifications, id)
			delete(m.seq, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
