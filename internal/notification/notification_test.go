package notification

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	now := time.Now()
	n := New("u1", "sla_breach", []string{"email", "teams"}, now)
	if n.ID == "" || n.Status != StatusPending {
		t.Fatalf("New() = %+v", n)
	}
	for _, ch := range []string{"email", "teams"} {
		if n.ChannelStatus[ch] != StatusPending {
			t.Errorf("channel %s status = %s", ch, n.ChannelStatus[ch])
		}
	}
	if other := New("u1", "sla_breach", nil, now); other.ID == n.ID {
		t.Error("ids must be unique")
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	n := New("u1", "t", nil, time.Now())
	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	n.MarkRead(first)
	n.MarkRead(second)
	if n.Status != StatusRead {
		t.Errorf("status = %s, want read", n.Status)
	}
	if !n.ReadAt.Equal(second) {
		t.Errorf("ReadAt = %v, want %v", n.ReadAt, second)
	}
}

func TestClone(t *testing.T) {
	n := New("u1", "t", []string{"email"}, time.Now())
	c := n.Clone()
	c.ChannelStatus["email"] = StatusSent
	c.Channels[0] = "teams"
	if n.ChannelStatus["email"] != StatusPending || n.Channels[0] != "email" {
		t.Error("Clone shares state with original")
	}
}

func TestStats(t *testing.T) {
	s := NewStats()
	for _, st := range []Status{StatusSent, StatusRead, StatusFailed, StatusSent} {
		n := New("u1", "t", nil, time.Now())
		n.Status = st
		n.Priority = "high"
		s.Add(n)
	}
	if s.Total != 4 || s.Unread != 3 || s.ByStatus[StatusSent] != 2 || s.ByPriority["high"] != 4 {
		t.Errorf("stats = %+v", s)
	}
}
