package notify

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// TelegramSender delivers alerts through the Telegram Bot API. The bot is
// created without a poller: this process only pushes messages and exits.
type TelegramSender struct {
	bot    *tele.Bot
	chatID int64
}

var newBot = func(pref tele.Settings) (*tele.Bot, error) {
	return tele.NewBot(pref)
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram: token and chat id are required")
	}
	b, err := newBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &TelegramSender{bot: b, chatID: chatID}, nil
}

func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	_, err := t.bot.Send(tele.ChatID(t.chatID), title+"\n"+message)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (t *TelegramSender) Name() string {
	return "telegram"
}
