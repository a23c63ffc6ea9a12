// Package teams posts notifications to a team-chat incoming webhook as
// MessageCard JSON.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

var themeColors = map[string]string{
	"low":      "2EB886",
	"medium":   "439FE0",
	"high":     "DAA038",
	"urgent":   "D00000",
	"critical": "D00000",
}

type fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type section struct {
	ActivityTitle string `json:"activityTitle"`
	Text          string `json:"text"`
	Facts         []fact `json:"facts"`
}

// Card is the MessageCard payload sent to the webhook.
type Card struct {
	Type       string    `json:"@type"`
	Context    string    `json:"@context"`
	Summary    string    `json:"summary"`
	ThemeColor string    `json:"themeColor"`
	Sections   []section `json:"sections"`
}

// BuildCard renders msg as a MessageCard.
func BuildCard(msg channel.Message) Card {
	color, ok := themeColors[msg.Priority]
	if !ok {
		color = themeColors["medium"]
	}
	return Card{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    msg.Title,
		ThemeColor: color,
		Sections: []section{{
			ActivityTitle: msg.Title,
			Text:          msg.Body,
			Facts: []fact{
				{Name: "Priority", Value: msg.Priority},
				{Name: "Type", Value: msg.Type},
				{Name: "Recipient", Value: msg.Recipient},
				{Name: "Notification", Value: msg.NotificationID},
			},
		}},
	}
}

// Adapter is the "teams" channel.
type Adapter struct {
	webhookURL string
	httpClient *http.Client
}

// New returns an adapter posting to webhookURL. A recipient whose address
// is itself a webhook URL is posted there instead.
func New(webhookURL string) *Adapter {
	return &Adapter{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Channel() string { return "teams" }

func (a *Adapter) Send(ctx context.Context, msg channel.Message) error {
	url := a.webhookURL
	if isURL(msg.Address) {
		url = msg.Address
	}
	if !isURL(url) {
		return fmt.Errorf("teams webhook URL is not configured")
	}

	body, err := json.Marshal(BuildCard(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal teams card: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to teams webhook %s: %w", maskURL(url), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("teams webhook returned status %d", resp.StatusCode)
	}
	slog.Debug("teams notification posted", "notification_id", msg.NotificationID)
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}
