package app

import (
	"strings"
	"testing"

	"shopbuzz/internal/config"
	"shopbuzz/internal/notify"
	logx "shopbuzz/pkg/logx"
)

func TestBuildSenderNormalizesChannel(t *testing.T) {
	// Validate lowercases and trims the channel, so the resolver must accept
	// the same spellings it lets through.
	for _, ch := range []string{"", "console", "Console", " CONSOLE "} {
		sender, err := buildSender(config.NotifierConfig{Channel: ch}, logx.Nop())
		if err != nil {
			t.Fatalf("channel %q rejected: %v", ch, err)
		}
		if _, ok := sender.(*notify.ConsoleSender); !ok {
			t.Fatalf("channel %q resolved to %T", ch, sender)
		}
	}
}

func TestBuildSenderTelegramWithoutBlock(t *testing.T) {
	_, err := buildSender(config.NotifierConfig{Channel: "Telegram"}, logx.Nop())
	if err == nil || !strings.Contains(err.Error(), "notifier.telegram is missing") {
		t.Fatalf("missing telegram block: got %v", err)
	}
}

func TestBuildSenderUnknownChannel(t *testing.T) {
	if _, err := buildSender(config.NotifierConfig{Channel: "pigeon"}, logx.Nop()); err == nil {
		t.Fatalf("unknown channel accepted")
	}
}
