// Package notify delivers operator notifications for hype score changes.
package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends score change notifications to a single operator chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram notifier with the given bot token.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// ScoreChanged sends a notification about a site's new hype score.
func (t *Telegram) ScoreChanged(site model.Site, oldScore, newScore int) {
	msg := tgbotapi.NewMessage(t.chatID, FormatScoreChange(site, oldScore, newScore))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("send notification", "site_id", site.ID, "error", err)
	}
}

// FormatScoreChange formats a score change notification message.
func FormatScoreChange(site model.Site, oldScore, newScore int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n\n", site.Domain)
	fmt.Fprintf(&b, "Hype score: %d -> %d", oldScore, newScore)
	switch {
	case newScore > oldScore:
		fmt.Fprintf(&b, " (+%d)", newScore-oldScore)
	case newScore < oldScore:
		fmt.Fprintf(&b, " (%d)", newScore-oldScore)
	}
	if site.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(site.URL)
	}
	return b.String()
}
