package config

import (
	"sync"
	"time"
)

// Outbound rate limit applied when the telegram section leaves it unset.
const (
	DefaultSendRPS   = 20
	DefaultSendBurst = 5
)

// Config is the root configuration for the goalkeeper bot.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Bot       BotConfig       `json:"bot,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// TelegramConfig configures the Telegram Bot API source.
// The token is read from env GOALKEEPER_TELEGRAM_TOKEN, or fetched from
// SSM Parameter Store when TokenParameter is set.
type TelegramConfig struct {
	Token          string  `json:"-"`                         // from env GOALKEEPER_TELEGRAM_TOKEN only
	TokenParameter string  `json:"token_parameter,omitempty"` // SSM parameter name holding the token
	Proxy          string  `json:"proxy,omitempty"`
	PollTimeout    int     `json:"poll_timeout,omitempty"` // long-poll timeout in seconds (default 30)
	SendRPS        float64 `json:"send_rps,omitempty"`     // outbound messages per second (default 20)
	SendBurst      int     `json:"send_burst,omitempty"`   // outbound burst size (default 5)
}

// DatabaseConfig selects the storage backend.
// PostgresDSN is NEVER read from config.json (secret), only from env GOALKEEPER_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`                     // from env GOALKEEPER_POSTGRES_DSN only
	Mode        string `json:"mode,omitempty"`        // "standalone" (default) or "managed"
	SQLitePath  string `json:"sqlite_path,omitempty"` // standalone database file
}

// IsManagedMode returns true if the bot runs against Postgres.
func (c *Config) IsManagedMode() bool {
	return c.Database.Mode == "managed" && c.Database.PostgresDSN != ""
}

// BotConfig tunes the polling loop.
type BotConfig struct {
	Name          string `json:"name,omitempty"`            // offset key (default "telegram")
	MaxFetchTries uint   `json:"max_fetch_tries,omitempty"` // fetch attempts before the loop gives up (default 5)
	DialogTTL     string `json:"dialog_ttl,omitempty"`      // drop idle dialogs older than this (Go duration, empty = never)
}

// DialogTTLDuration parses DialogTTL. Empty disables expiry; Validate rejects malformed values.
func (b BotConfig) DialogTTLDuration() time.Duration {
	if b.DialogTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(b.DialogTTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// TelemetryConfig configures OpenTelemetry export for traces and spans.
// When enabled, spans are exported to an OTLP-compatible backend (Jaeger, Tempo, Datadog, etc.).
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`      // enable OTLP export (default false)
	Endpoint    string            `json:"endpoint,omitempty"`     // OTLP endpoint (e.g. "localhost:4317", "https://otel.example.com:4318")
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext connection (default false, set true for local dev)
	ServiceName string            `json:"service_name,omitempty"` // OTEL service name (default "goalkeeper")
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (e.g. auth tokens for cloud backends)
}
