package consumer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subscribes to a subject in a queue group and enqueues every event
// envelope it receives. Core NATS does not redeliver, so an event that
// meets a full queue is dropped.
type NATS struct {
	conn    *nats.Conn
	sink    Sink
	subject string
}

// NewNATS connects to url and starts the subscription.
func NewNATS(url, subject, queue string, sink Sink) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("notifyflow"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	n := &NATS{conn: conn, sink: sink, subject: subject}
	if _, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		n.deliver(msg.Data)
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	slog.Info("nats subscription started", "subject", subject, "queue", queue)
	return n, nil
}

// deliver reports whether the payload was enqueued.
func (n *NATS) deliver(data []byte) bool {
	env, ok := decode(data, "nats:"+n.subject)
	if !ok {
		return false
	}
	if !n.sink.Enqueue(env.Recipient, env.ToEvent()) {
		slog.Warn("event dropped, queue full", "subject", n.subject, "recipient", env.Recipient)
		return false
	}
	return true
}

// Close drains the subscription and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
