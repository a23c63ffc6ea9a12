package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

func TestAdapter_Send(t *testing.T) {
	var got Card
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(srv.URL)
	err := a.Send(context.Background(), channel.Message{
		NotificationID: "n1", Recipient: "u1", Address: "u1",
		Title: "Security incident detected", Body: "IP: 10.0.0.1", Priority: "urgent", Type: "critical",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Type != "MessageCard" || got.ThemeColor != "D00000" || got.Sections[0].Text != "IP: 10.0.0.1" {
		t.Errorf("card = %+v", got)
	}
}

func TestAdapter_AddressOverridesWebhook(t *testing.T) {
	var hit atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
	}))
	defer srv.Close()

	a := New("")
	if err := a.Send(context.Background(), channel.Message{Address: srv.URL}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !hit.Load() {
		t.Error("recipient webhook was not called")
	}
}

func TestAdapter_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := New(srv.URL).Send(context.Background(), channel.Message{}); err == nil {
		t.Error("expected error on 500")
	}
	if err := New("").Send(context.Background(), channel.Message{Address: "u1"}); err == nil {
		t.Error("expected error without webhook URL")
	}
}

func TestBuildCard_UnknownPriorityColor(t *testing.T) {
	if c := BuildCard(channel.Message{Priority: "bogus"}); c.ThemeColor != themeColors["medium"] {
		t.Errorf("ThemeColor = %s", c.ThemeColor)
	}
}
