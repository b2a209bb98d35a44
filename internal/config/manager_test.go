package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: debug
  console: true
storage:
  driver: file
  path: ./data
notifier:
  channel: console
simulator:
  enabled: true
  spec: "@every 30s"
api:
  enabled: true
  addr: "127.0.0.1:8787"
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging mismatch: %+v", cfg.Logging)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("storage mismatch: %+v", cfg.Storage)
	}
	if cfg.Simulator.Spec != "@every 30s" {
		t.Fatalf("simulator mismatch: %+v", cfg.Simulator)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
notifier:
  channel: console
  retries: 3
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("unknown field accepted")
	}
}

func TestValidateTelegramChannel(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing block",
			cfg:  Config{Notifier: NotifierConfig{Channel: "telegram"}},
			want: "notifier.telegram is required",
		},
		{
			name: "empty token",
			cfg: Config{Notifier: NotifierConfig{
				Channel:  "telegram",
				Telegram: &TelegramConfig{ChatID: 42},
			}},
			want: "token is empty",
		},
		{
			name: "missing chat id",
			cfg: Config{Notifier: NotifierConfig{
				Channel:  "telegram",
				Telegram: &TelegramConfig{Token: "t"},
			}},
			want: "chat_id is required",
		},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: got %v, want %q", c.name, err, c.want)
		}
	}

	ok := Config{Notifier: NotifierConfig{
		Channel:  "telegram",
		Telegram: &TelegramConfig{Token: "t", ChatID: 42},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("complete telegram config rejected: %v", err)
	}
}

func TestValidateRejectsUnknownChannel(t *testing.T) {
	cfg := Config{Notifier: NotifierConfig{Channel: "pigeon"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown channel accepted")
	}
}

func TestValidateRejectsBadDurations(t *testing.T) {
	cfg := Config{API: APIConfig{ReadTimeout: "soon"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("bad duration accepted")
	}
	cfg = Config{Storage: &StorageConfig{BusyTimeout: "-1s"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative duration accepted")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"notifier":{"channel":"console"}}{"extra":true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("trailing data accepted")
	}
}
