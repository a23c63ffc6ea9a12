// Package consumer feeds events from message brokers into the engine.
package consumer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
)

// Sink accepts decoded events. *engine.Engine implements it.
type Sink interface {
	Enqueue(recipient string, ev *event.Event) bool
}

// decode parses a broker payload. Malformed payloads are logged with the
// source so they can be traced back to a partition or subject.
func decode(data []byte, source string) (*event.Envelope, bool) {
	env, err := event.DecodeEnvelope(data)
	if err != nil {
		slog.Warn("discarding malformed event", "source", source, "err", err)
		return nil, false
	}
	return env, true
}

// parseBrokers parses a comma-separated broker list and trims whitespace.
func parseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func validateParams(brokers, topic, groupID string) error {
	if strings.TrimSpace(brokers) == "" {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}
