package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
	"github.com/gyaneshwarpardhi/notifyflow/internal/scoring"
)

// Status is the delivery state of a notification or of one of its channels.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusRead    Status = "read"
)

// Metadata is attached to every notification for later inspection.
type Metadata struct {
	TemplateName  string            `json:"templateName"`
	Analysis      scoring.Analysis  `json:"analysis"`
	ChannelErrors map[string]string `json:"channelErrors,omitempty"`
}

// Notification is a rendered, addressed alert produced for one recipient
// from one matched template.
type Notification struct {
	ID            string                 `json:"id"`
	Recipient     string                 `json:"recipient"`
	TemplateID    string                 `json:"templateId"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	Type          string                 `json:"type"`
	Priority      priority.Priority      `json:"priority"`
	Channels      []string               `json:"channels"`
	Status        Status                 `json:"status"`
	ChannelStatus map[string]Status      `json:"channelStatus"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Metadata      Metadata               `json:"metadata"`
	CreatedAt     time.Time              `json:"createdAt"`
	SentAt        *time.Time             `json:"sentAt,omitempty"`
	ReadAt        *time.Time             `json:"readAt,omitempty"`
}

// New returns a pending notification with a fresh id and every channel
// marked pending.
func New(recipient, templateID string, channels []string, now time.Time) *Notification {
	n := &Notification{
		ID:            uuid.NewString(),
		Recipient:     recipient,
		TemplateID:    templateID,
		Channels:      append([]string(nil), channels...),
		Status:        StatusPending,
		ChannelStatus: make(map[string]Status, len(channels)),
		CreatedAt:     now,
	}
	for _, ch := range channels {
		n.ChannelStatus[ch] = StatusPending
	}
	return n
}

// MarkRead moves n to read. Marking an already read notification only
// refreshes ReadAt.
func (n *Notification) MarkRead(at time.Time) {
	n.Status = StatusRead
	n.ReadAt = &at
}

// Clone returns a deep copy of the mutable parts of n.
func (n *Notification) Clone() *Notification {
	c := *n
	c.Channels = append([]string(nil), n.Channels...)
	c.ChannelStatus = make(map[string]Status, len(n.ChannelStatus))
	for k, v := range n.ChannelStatus {
		c.ChannelStatus[k] = v
	}
	if n.Metadata.ChannelErrors != nil {
		c.Metadata.ChannelErrors = make(map[string]string, len(n.Metadata.ChannelErrors))
		for k, v := range n.Metadata.ChannelErrors {
			c.Metadata.ChannelErrors[k] = v
		}
	}
	if n.SentAt != nil {
		t := *n.SentAt
		c.SentAt = &t
	}
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	return &c
}

// Stats summarises a recipient's notifications.
type Stats struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	ByStatus   map[Status]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
}

// NewStats returns zeroed stats with allocated maps.
func NewStats() Stats {
	return Stats{ByStatus: map[Status]int{}, ByPriority: map[string]int{}}
}

// Add counts n into s.
func (s *Stats) Add(n *Notification) {
	s.AddCount(n.Status, string(n.Priority), 1)
}

// AddCount counts c notifications with the given status and priority.
func (s *Stats) AddCount(st Status, prio string, c int) {
	s.Total += c
	if st != StatusRead {
		s.Unread += c
	}
	s.ByStatus[st] += c
	s.ByPriority[prio] += c
}
