package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
)

// TelegramSink forwards booking events to a Telegram chat (typically the
// platform's operations channel). Enabled when TELEGRAM_TOKEN is set.
type TelegramSink struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{bot: b, chatID: chatID}, nil
}

func (s *TelegramSink) Notify(ctx context.Context, event Event) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: s.chatID,
		Text:   event.Text(),
	})
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}
