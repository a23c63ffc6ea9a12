package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
)

const preferenceKeyPrefix = "notifyflow:prefs:"

// CachedPreferences fronts a Store's preference reads with Redis. Every
// other method goes straight to the wrapped Store. Redis failures are
// logged and fall through.
type CachedPreferences struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedPreferences wraps s.
func NewCachedPreferences(s Store, client *redis.Client, ttl time.Duration) *CachedPreferences {
	return &CachedPreferences{Store: s, client: client, ttl: ttl}
}

func preferenceKey(recipient string) string {
	return preferenceKeyPrefix + recipient
}

func (c *CachedPreferences) Preferences(ctx context.Context, recipient string) ([]preference.Preference, error) {
	data, err := c.client.Get(ctx, preferenceKey(recipient)).Bytes()
	switch {
	case err == nil:
		var prefs []preference.Preference
		if err := json.Unmarshal(data, &prefs); err == nil {
			return prefs, nil
		}
		slog.Warn("discarding corrupt preference cache entry", "recipient", recipient)
	case err != redis.Nil:
		slog.Warn("preference cache read failed", "recipient", recipient, "err", err)
	}

	prefs, err := c.Store.Preferences(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(prefs); err == nil {
		if err := c.client.Set(ctx, preferenceKey(recipient), data, c.ttl).Err(); err != nil {
			slog.Warn("preference cache write failed", "recipient", recipient, "err", err)
		}
	}
	return prefs, nil
}

func (c *CachedPreferences) SetPreferences(ctx context.Context, recipient string, prefs []preference.Preference) error {
	if err := c.Store.SetPreferences(ctx, recipient, prefs); err != nil {
		return err
	}
	if err := c.client.Del(ctx, preferenceKey(recipient)).Err(); err != nil {
		slog.Warn("preference cache invalidation failed", "recipient", recipient, "err", err)
	}
	return nil
}

// Close closes the wrapped Store. The Redis client is owned by the caller.
func (c *CachedPreferences) Close() error {
	return c.Store.Close()
}
