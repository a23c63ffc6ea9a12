package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/notifyflow/internal/notification"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	n := notification.New("u1", "sla_breach", []string{"email", "teams"}, time.Now())

	if err := s.SaveNotification(ctx, n); err != nil {
		t.Fatal(err)
	}
	// the stored copy is independent of the caller's
	n.Title = "changed"

	if err := s.UpdateChannelStatus(ctx, n.ID, "teams", notification.StatusFailed, "timeout"); err != nil {
		t.Fatal(err)
	}
	sent := time.Now()
	if err := s.UpdateStatus(ctx, n.ID, notification.StatusSent, &sent); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "" || got.Status != notification.StatusSent || got.SentAt == nil {
		t.Errorf("stored = %+v", got)
	}
	if got.ChannelStatus["teams"] != notification.StatusFailed || got.Metadata.ChannelErrors["teams"] != "timeout" {
		t.Errorf("channel state = %v %v", got.ChannelStatus, got.Metadata.ChannelErrors)
	}

	if err := s.MarkRead(ctx, n.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRead(ctx, n.ID, time.Now()); err != nil {
		t.Fatalf("second MarkRead should succeed: %v", err)
	}
	got, _ = s.GetNotification(ctx, n.ID)
	if got.Status != notification.StatusRead || got.ReadAt == nil {
		t.Errorf("after MarkRead = %+v", got)
	}
}

func TestMemoryStore_UpdateStatusKeepsRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	n := notification.New("u1", "sla_breach", []string{"email"}, time.Now())
	if err := s.SaveNotification(ctx, n); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRead(ctx, n.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	for _, status := range []notification.Status{notification.StatusSent, notification.StatusFailed} {
		sent := time.Now()
		if err := s.UpdateStatus(ctx, n.ID, status, &sent); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetNotification(ctx, n.ID)
		if got.Status != notification.StatusRead {
			t.Errorf("after UpdateStatus(%s) Status = %s, want read", status, got.Status)
		}
		if got.SentAt == nil || got.ReadAt == nil {
			t.Errorf("SentAt = %v ReadAt = %v", got.SentAt, got.ReadAt)
		}
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := s.GetNotification(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetNotification error = %v", err)
	}
	if err := s.MarkRead(ctx, "x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead error = %v", err)
	}
	if err := s.UpdateStatus(ctx, "x", notification.StatusSent, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus error = %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		_ = s.SaveNotification(ctx, notification.New("u1", "t", nil, base.Add(time.Duration(i)*time.Minute)))
	}
	_ = s.SaveNotification(ctx, notification.New("u2", "t", nil, base))

	got, _ := s.ListNotifications(ctx, "u1", 0)
	if len(got) != DefaultListLimit {
		t.Fatalf("len = %d, want %d", len(got), DefaultListLimit)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("not newest first at %d", i)
		}
	}
	if got, _ := s.ListNotifications(ctx, "u1", 5); len(got) != 5 {
		t.Errorf("limit 5 returned %d", len(got))
	}
}

func TestMemoryStore_StatsAndPrune(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	old := time.Now().Add(-100 * 24 * time.Hour)

	a := notification.New("u1", "t", nil, old)
	a.Priority = "high"
	b := notification.New("u1", "t", nil, time.Now())
	b.Priority = "low"
	_ = s.SaveNotification(ctx, a)
	_ = s.SaveNotification(ctx, b)
	_ = s.MarkRead(ctx, a.ID, old)

	st, _ := s.Stats(ctx, "u1")
	if st.Total != 2 || st.Unread != 1 || st.ByPriority["high"] != 1 {
		t.Errorf("Stats = %+v", st)
	}

	n, _ := s.PruneRead(ctx, time.Now().Add(-90*24*time.Hour))
	if n != 1 {
		t.Errorf("PruneRead = %d, want 1", n)
	}
	if _, err := s.GetNotification(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Error("pruned notification still present")
	}
}

func TestMemoryStore_SetPreferencesReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.SetPreferences(ctx, "u1", []preference.Preference{{Channel: "email"}, {Channel: "teams"}})
	_ = s.SetPreferences(ctx, "u1", []preference.Preference{{Channel: "whatsapp"}})

	got, _ := s.Preferences(ctx, "u1")
	if len(got) != 1 || got[0].Channel != "whatsapp" {
		t.Errorf("Preferences = %+v", got)
	}
	_ = s.SetPreferences(ctx, "u1", nil)
	if got, _ := s.Preferences(ctx, "u1"); len(got) != 0 {
		t.Errorf("Preferences after clear = %+v", got)
	}
}
