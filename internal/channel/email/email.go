// Package email delivers notifications by email through a primary
// provider with ordered fallbacks.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

// Adapter is the "email" channel.
type Adapter struct {
	from      string
	providers *Providers
}

// New returns an email adapter sending from the given address.
func New(from string, providers *Providers) *Adapter {
	return &Adapter{from: from, providers: providers}
}

func (a *Adapter) Channel() string { return "email" }

// Send delivers msg to msg.Address, which may hold several comma
// separated addresses.
func (a *Adapter) Send(ctx context.Context, msg channel.Message) error {
	to := parseRecipients(msg.Address)
	if len(to) == 0 {
		return fmt.Errorf("no email address for recipient %q", msg.Recipient)
	}
	for _, addr := range to {
		if !strings.Contains(addr, "@") {
			return fmt.Errorf("invalid email address %q", addr)
		}
	}
	return a.providers.Send(ctx, &Request{
		From:    a.from,
		To:      to,
		Subject: subject(msg),
		Body:    msg.Body,
	})
}

func subject(msg channel.Message) string {
	if msg.Priority == "urgent" || msg.Priority == "critical" {
		return "[" + strings.ToUpper(msg.Priority) + "] " + msg.Title
	}
	return msg.Title
}

func parseRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
