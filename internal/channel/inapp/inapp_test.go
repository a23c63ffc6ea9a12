package inapp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

type fakePublisher struct {
	subject string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, ch string, message interface{}) *redis.IntCmd {
	f.subject = ch
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func TestAdapter_Send(t *testing.T) {
	pub := &fakePublisher{}
	fixed := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	a := &Adapter{client: pub, now: func() time.Time { return fixed }}

	err := a.Send(context.Background(), channel.Message{
		NotificationID: "n1", Recipient: "u1", Title: "Report delivered", Priority: "low",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if pub.subject != "notifications:u1" {
		t.Errorf("subject = %s", pub.subject)
	}
	var ev Event
	if err := json.Unmarshal(pub.payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.NotificationID != "n1" || !ev.PublishedAt.Equal(fixed) {
		t.Errorf("event = %+v", ev)
	}
}

func TestAdapter_PublishError(t *testing.T) {
	a := &Adapter{client: &fakePublisher{err: errors.New("connection refused")}, now: time.Now}
	if err := a.Send(context.Background(), channel.Message{Recipient: "u1"}); err == nil {
		t.Error("expected publish error")
	}
}

func TestAdapter_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}

	sub := client.Subscribe(ctx, Subject("inapp-test"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	if err := New(client).Send(ctx, channel.Message{NotificationID: "n1", Recipient: "inapp-test"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	select {
	case m := <-sub.Channel():
		var ev Event
		if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil || ev.NotificationID != "n1" {
			t.Errorf("payload = %s", m.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Error("no message received")
	}
}
