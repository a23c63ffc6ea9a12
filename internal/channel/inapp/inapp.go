// Package inapp publishes notifications to the in-app feed over Redis
// pub/sub. Each recipient has its own subject.
package inapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

// Subject returns the pub/sub channel a recipient's feed listens on.
func Subject(recipient string) string {
	return "notifications:" + recipient
}

// Event is the JSON document published to the feed.
type Event struct {
	NotificationID string    `json:"notification_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Type           string    `json:"type"`
	Priority       string    `json:"priority"`
	PublishedAt    time.Time `json:"published_at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Adapter is the "in_app" channel.
type Adapter struct {
	client publisher
	now    func() time.Time
}

// New returns an adapter publishing through client.
func New(client *redis.Client) *Adapter {
	return &Adapter{client: client, now: time.Now}
}

func (a *Adapter) Channel() string { return "in_app" }

// Send publishes msg. Having no live subscriber is not an error; the
// notification stays listable through the store.
func (a *Adapter) Send(ctx context.Context, msg channel.Message) error {
	data, err := json.Marshal(Event{
		NotificationID: msg.NotificationID,
		Title:          msg.Title,
		Body:           msg.Body,
		Type:           msg.Type,
		Priority:       msg.Priority,
		PublishedAt:    a.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal in-app event: %w", err)
	}
	if err := a.client.Publish(ctx, Subject(msg.Recipient), data).Err(); err != nil {
		return fmt.Errorf("failed to publish in-app event: %w", err)
	}
	return nil
}
