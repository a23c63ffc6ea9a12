package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingRecipient is returned for an envelope without a recipient.
var ErrMissingRecipient = errors.New("recipient is required")

// Envelope is the wire form of an event addressed to one recipient. It is
// shared by the HTTP API and the message consumers.
type Envelope struct {
	ID        string                 `json:"id,omitempty"`
	Recipient string                 `json:"recipient"`
	Event     map[string]interface{} `json:"event"`
}

// DecodeEnvelope parses and checks one JSON envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate reports whether the envelope can be routed.
func (e *Envelope) Validate() error {
	if strings.TrimSpace(e.Recipient) == "" {
		return ErrMissingRecipient
	}
	return nil
}

// ToEvent builds the Event carried by the envelope.
func (e *Envelope) ToEvent() *Event {
	ev := New(e.Event)
	ev.ID = e.ID
	return ev
}
