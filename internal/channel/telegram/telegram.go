// Package telegram delivers notifications through a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

// sender is the part of *tele.Bot the adapter uses.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Adapter is the "telegram" channel. The message address is the chat id.
type Adapter struct {
	bot sender
}

// New connects a bot for token. The bot only sends; it never polls.
func New(token string) (*Adapter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Adapter{bot: b}, nil
}

func (a *Adapter) Channel() string { return "telegram" }

func (a *Adapter) Send(ctx context.Context, msg channel.Message) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(msg.Address), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id for recipient %q: %w", msg.Recipient, err)
	}
	text := prefixForPriority(msg.Priority) + "<b>" + escape(msg.Title) + "</b>\n" + escape(msg.Body)

	// telebot has no context support; run the call so ctx can abandon it.
	done := make(chan error, 1)
	go func() {
		_, err := a.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: true,
		})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func prefixForPriority(p string) string {
	switch p {
	case "urgent", "critical":
		return "🚨 "
	case "high":
		return "⚠️ "
	}
	return ""
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
