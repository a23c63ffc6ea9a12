// Package store persists notifications and recipient preferences.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
)

// ErrNotFound is returned when a notification id is unknown.
var ErrNotFound = errors.New("not found")

// DefaultListLimit applies when ListNotifications is called with limit <= 0.
const DefaultListLimit = 50

// Store is the persistence boundary of the engine.
type Store interface {
	SaveNotification(ctx context.Context, n *notification.Notification) error
	// UpdateStatus records a delivery outcome. A notification already
	// marked read keeps its read status; sentAt is still recorded.
	UpdateStatus(ctx context.Context, id string, status notification.Status, sentAt *time.Time) error
	UpdateChannelStatus(ctx context.Context, id, channel string, status notification.Status, errMsg string) error
	MarkRead(ctx context.Context, id string, at time.Time) error
	GetNotification(ctx context.Context, id string) (*notification.Notification, error)
	// ListNotifications returns the newest notifications first.
	ListNotifications(ctx context.Context, recipient string, limit int) ([]*notification.Notification, error)
	Stats(ctx context.Context, recipient string) (notification.Stats, error)
	Preferences(ctx context.Context, recipient string) ([]preference.Preference, error)
	// SetPreferences replaces every preference of the recipient.
	SetPreferences(ctx context.Context, recipient string, prefs []preference.Preference) error
	// PruneRead deletes read notifications read before olderThan.
	PruneRead(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*CachedPreferences)(nil)
)

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
