package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram рассылает уведомления в чаты учителей.
// chats сопоставляет имя учителя из расписания с chat id.
type Telegram struct {
	sender messageSender
	chats  map[string]int64
	logger *zap.Logger
}

func NewTelegram(b *bot.Bot, chats map[string]int64, logger *zap.Logger) *Telegram {
	return newTelegram(b, chats, logger)
}

func newTelegram(sender messageSender, chats map[string]int64, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, chats: chats, logger: logger}
}

func (t *Telegram) Notify(ctx context.Context, p Payload) error {
	text := p.Summary()

	var errs error
	for _, name := range p.Recipients {
		chatID, ok := t.chats[name]
		if !ok {
			t.logger.Debug("No telegram chat for recipient", zap.String("teacher", name))
			continue
		}

		_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", name, err))
		}
	}

	return errs
}
