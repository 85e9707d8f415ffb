package dispatch

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flowradar/pkg/errors"
)

// telegramAPI is the slice of the bot client the channel uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends alert text to a Telegram chat
type TelegramChannel struct {
	bot    telegramAPI
	chatID int64
}

// NewTelegramChannel creates a telegram channel from a bot token
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot init")
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

// Name returns the channel name
func (t *TelegramChannel) Name() string { return "telegram" }

// Deliver sends the payload's text rendering to the configured chat
func (t *TelegramChannel) Deliver(_ context.Context, p Payload) error {
	msg := tgbotapi.NewMessage(t.chatID, p.Text())
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "telegram send")
	}
	return nil
}
