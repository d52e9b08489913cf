package notify

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jimezsa/jobnotify/internal/models"
)

// telegramLimit is the Bot API cap on message text length.
const telegramLimit = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends a summary message followed by one message per job.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "init telegram bot"),
			"check notify.telegram.token or TELEGRAM_BOT_TOKEN",
		)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, jobs []models.Job) error {
	if err := t.send(Summary(len(jobs))); err != nil {
		return err
	}
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		text := fmt.Sprintf("%d. %s", i+1, job.Render(true))
		if err := t.send(text); err != nil {
			return errors.Wrapf(err, "job %d of %d", i+1, len(jobs))
		}
	}
	return nil
}

func (t *Telegram) send(text string) error {
	if runes := []rune(text); len(runes) > telegramLimit {
		text = string(runes[:telegramLimit-3]) + "..."
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "telegram send")
	}
	return nil
}
