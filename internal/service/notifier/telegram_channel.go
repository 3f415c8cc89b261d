package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel posts alerts to one chat.
type TelegramChannel struct {
	api    botSender
	chatID int64
}

// NewTelegramChannel authenticates the bot. A bad token fails here, at startup.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token and chat_id are required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramChannel{api: api, chatID: chatID}, nil
}

func (c *TelegramChannel) Kind() string { return "telegram" }

// Send ignores ctx; the bot client has its own HTTP timeout.
func (c *TelegramChannel) Send(_ context.Context, m Message) error {
	msg := tgbotapi.NewMessage(c.chatID, m.Text())
	msg.DisableWebPagePreview = true
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Close is a no-op; the bot never polls for updates.
func (c *TelegramChannel) Close() error { return nil }
