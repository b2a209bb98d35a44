// Package telegram delivers notifications to a Telegram chat via telebot.
// It is send-only; the bot never polls for updates.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"shopbuzz/internal/notify"
	logx "shopbuzz/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
}

type Sender struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// Offline poller settings: NewBot verifies the token via getMe, but we
	// never start polling.
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Sender{cfg: cfg, log: log, bot: b}, nil
}

// RequestPermission checks that the configured chat is reachable.
// An unreachable chat means delivery is unavailable, not broken config.
func (s *Sender) RequestPermission(ctx context.Context) (bool, error) {
	_ = ctx
	_, err := s.bot.ChatByID(s.cfg.ChatID)
	if err != nil {
		s.log.Warn("telegram chat unreachable; delivery disabled", logx.Int64("chat_id", s.cfg.ChatID), logx.Err(err))
		return false, nil
	}
	return true, nil
}

func (s *Sender) Send(ctx context.Context, n notify.Notification) (string, error) {
	_ = ctx
	text := "<b>" + html.EscapeString(n.Title) + "</b>\n" + html.EscapeString(n.Body)
	msg, err := s.bot.Send(&tele.Chat{ID: s.cfg.ChatID}, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", err)
	}
	return strconv.Itoa(msg.ID), nil
}
