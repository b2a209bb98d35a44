package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Storage controls the durable blob layer behind the settings and
	// history stores. If omitted, both stores run in-memory for the session.
	Storage *StorageConfig `json:"storage,omitempty"`

	Notifier NotifierConfig `json:"notifier"`

	// Simulator drives the automatic refresh cadence (the pull-to-refresh
	// stand-in). Manual triggers via the API work regardless.
	Simulator SimulatorConfig `json:"simulator"`

	API APIConfig `json:"api,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./shopbuzz_data" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// NotifierConfig selects the delivery channel.
//
// Channel values: "console" (default), "telegram".
type NotifierConfig struct {
	Channel     string          `json:"channel"`
	SendsPerSec int             `json:"sends_per_sec,omitempty"`
	Telegram    *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// SimulatorConfig controls the cron-driven auto refresh.
//
// Spec is a cron expression (5 or 6 fields, or a descriptor like
// "@every 1m"). The frequency policy still applies on every tick; a tick
// that lands inside the throttle window is a quiet no-op.
type SimulatorConfig struct {
	Enabled  bool   `json:"enabled"`
	Spec     string `json:"spec,omitempty"` // default: "@every 1m"
	Timezone string `json:"timezone,omitempty"`
}

// APIConfig controls the local trigger/admin HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:8787").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type APIConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`  // default: "127.0.0.1:8787"
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`

	// Server timeouts (Go duration strings). WriteTimeout defaults to 0
	// (disabled) so the /api/events stream is not cut off.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// Validate rejects configs that cannot possibly run. It is also the hook the
// manager calls before committing a hot reload.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(c.Notifier.Channel)) {
	case "", "console":
	case "telegram":
		if c.Notifier.Telegram == nil {
			return errors.New("notifier.telegram is required for the telegram channel")
		}
		if strings.TrimSpace(c.Notifier.Telegram.Token) == "" {
			return errors.New("notifier.telegram.token is empty")
		}
		if c.Notifier.Telegram.ChatID == 0 {
			return errors.New("notifier.telegram.chat_id is required")
		}
	default:
		return fmt.Errorf("unknown notifier channel %q", c.Notifier.Channel)
	}

	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	for _, f := range []struct{ path, raw string }{
		{"api.read_timeout", c.API.ReadTimeout},
		{"api.write_timeout", c.API.WriteTimeout},
		{"api.idle_timeout", c.API.IdleTimeout},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}
