package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

type fakeBot struct {
	to    tele.Recipient
	text  string
	err   error
	delay time.Duration
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	time.Sleep(f.delay)
	f.to = to
	f.text, _ = what.(string)
	return &tele.Message{}, f.err
}

func TestAdapter_Send(t *testing.T) {
	bot := &fakeBot{}
	a := &Adapter{bot: bot}
	err := a.Send(context.Background(), channel.Message{
		Recipient: "u1", Address: "-100123", Title: "Disk <full>", Body: "a & b", Priority: "urgent",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if bot.to.Recipient() != "-100123" {
		t.Errorf("recipient = %s", bot.to.Recipient())
	}
	if !strings.HasPrefix(bot.text, "🚨 <b>Disk &lt;full&gt;</b>") || !strings.HasSuffix(bot.text, "a &amp; b") {
		t.Errorf("text = %q", bot.text)
	}
}

func TestAdapter_Errors(t *testing.T) {
	a := &Adapter{bot: &fakeBot{err: errors.New("chat not found")}}
	if err := a.Send(context.Background(), channel.Message{Address: "not-a-chat"}); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
	if err := a.Send(context.Background(), channel.Message{Address: "42"}); err == nil {
		t.Error("expected bot error")
	}
}

func TestAdapter_ContextCancel(t *testing.T) {
	a := &Adapter{bot: &fakeBot{delay: time.Second}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Send(ctx, channel.Message{Address: "42"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline exceeded", err)
	}
}

func TestNew_EmptyToken(t *testing.T) {
	if _, err := New(" "); err == nil {
		t.Error("expected error for empty token")
	}
}
