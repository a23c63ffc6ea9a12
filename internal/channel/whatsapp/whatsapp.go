// Package whatsapp sends notifications through a mobile messaging gateway
// that accepts JSON over HTTP with bearer authentication.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

// Payload is the body posted to the gateway.
type Payload struct {
	To        string `json:"to"`
	Text      string `json:"text"`
	Reference string `json:"reference"`
	Priority  string `json:"priority"`
}

// Adapter is the "whatsapp" channel.
type Adapter struct {
	gatewayURL string
	token      string
	httpClient *http.Client
}

// New returns an adapter for the gateway at gatewayURL.
func New(gatewayURL, token string) *Adapter {
	return &Adapter{
		gatewayURL: gatewayURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Channel() string { return "whatsapp" }

// Send posts msg to the gateway. msg.Address is the phone number.
func (a *Adapter) Send(ctx context.Context, msg channel.Message) error {
	if a.gatewayURL == "" {
		return fmt.Errorf("whatsapp gateway URL is not configured")
	}
	to := strings.TrimSpace(msg.Address)
	if to == "" {
		return fmt.Errorf("no phone number for recipient %q", msg.Recipient)
	}

	body, err := json.Marshal(Payload{
		To:        to,
		Text:      "*" + msg.Title + "*\n" + msg.Body,
		Reference: msg.NotificationID,
		Priority:  msg.Priority,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach whatsapp gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("whatsapp gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
