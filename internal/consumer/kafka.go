package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// DefaultRetryBackoff is the pause before offering an event to a full
	// queue again.
	DefaultRetryBackoff = 200 * time.Millisecond
	// DefaultMaxRetries bounds how often one message is re-offered.
	DefaultMaxRetries = 25
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka reads event envelopes from a topic with a consumer group and
// enqueues them. Offsets are committed after each message is handed off,
// giving at-least-once delivery into the queue.
type Kafka struct {
	reader     messageReader
	sink       Sink
	topic      string
	backoff    time.Duration
	maxRetries int
}

// NewKafka creates a consumer for topic in group groupID. brokers is a
// comma-separated list.
func NewKafka(brokers, topic, groupID string, sink Sink) (*Kafka, error) {
	if err := validateParams(brokers, topic, groupID); err != nil {
		return nil, err
	}
	brokerList := parseBrokers(brokers)

	slog.Info("initializing kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	// StartOffset only applies when the group has no committed offset.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	return newKafka(reader, topic, sink), nil
}

func newKafka(reader messageReader, topic string, sink Sink) *Kafka {
	return &Kafka{
		reader:     reader,
		sink:       sink,
		topic:      topic,
		backoff:    DefaultRetryBackoff,
		maxRetries: DefaultMaxRetries,
	}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and
// the reader error otherwise.
func (c *Kafka) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch from %s: %w", c.topic, err)
		}
		if !c.handle(ctx, msg) {
			// cancelled mid-retry; leave the offset for redelivery
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("kafka commit failed", "topic", c.topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		}
	}
}

// handle reports whether the message may be committed.
func (c *Kafka) handle(ctx context.Context, msg kafka.Message) bool {
	source := fmt.Sprintf("kafka:%s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	env, ok := decode(msg.Value, source)
	if !ok {
		return true
	}
	ev := env.ToEvent()
	for attempt := 0; ; attempt++ {
		if c.sink.Enqueue(env.Recipient, ev) {
			return true
		}
		if attempt >= c.maxRetries {
			slog.Error("event dropped, queue stayed full", "source", source, "recipient", env.Recipient, "attempts", attempt+1)
			return true
		}
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return false
		}
	}
}

// Close releases the reader.
func (c *Kafka) Close() error {
	slog.Info("closing kafka consumer", "topic", c.topic)
	return c.reader.Close()
}
