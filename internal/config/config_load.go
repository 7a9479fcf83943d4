package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/titanous/json5"
)

const secretMask = "***"

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 30,
			SendRPS:     DefaultSendRPS,
			SendBurst:   DefaultSendBurst,
		},
		Database: DatabaseConfig{
			Mode:       "standalone",
			SQLitePath: "~/.goalkeeper/goalkeeper.db",
		},
		Bot: BotConfig{
			Name:          "telegram",
			MaxFetchTries: 5,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "goalkeeper",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	// Telegram
	envStr("GOALKEEPER_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("GOALKEEPER_TELEGRAM_TOKEN_PARAMETER", &c.Telegram.TokenParameter)
	envStr("GOALKEEPER_TELEGRAM_PROXY", &c.Telegram.Proxy)
	if v := os.Getenv("GOALKEEPER_TELEGRAM_POLL_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
			c.Telegram.PollTimeout = sec
		}
	}

	// Database
	envStr("GOALKEEPER_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("GOALKEEPER_MODE", &c.Database.Mode)
	envStr("GOALKEEPER_SQLITE_PATH", &c.Database.SQLitePath)

	// Bot
	envStr("GOALKEEPER_BOT_NAME", &c.Bot.Name)
	envStr("GOALKEEPER_DIALOG_TTL", &c.Bot.DialogTTL)

	// Telemetry
	envStr("GOALKEEPER_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("GOALKEEPER_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("GOALKEEPER_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("GOALKEEPER_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envBool("GOALKEEPER_TELEMETRY_INSECURE", &c.Telemetry.Insecure)
}

// Validate reports configuration that cannot start the bot.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Database.Mode {
	case "", "standalone":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required in standalone mode")
		}
	case "managed":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("managed mode requires GOALKEEPER_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown database mode %q", c.Database.Mode)
	}
	if c.Telegram.Token == "" && c.Telegram.TokenParameter == "" {
		return fmt.Errorf("telegram token missing: set GOALKEEPER_TELEGRAM_TOKEN or telegram.token_parameter")
	}
	if c.Bot.DialogTTL != "" {
		d, err := time.ParseDuration(c.Bot.DialogTTL)
		if err != nil {
			return fmt.Errorf("invalid bot.dialog_ttl %q: %w", c.Bot.DialogTTL, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid bot.dialog_ttl %q: must not be negative", c.Bot.DialogTTL)
		}
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("unknown telemetry protocol %q", c.Telemetry.Protocol)
	}
	return nil
}

// MaskedCopy returns a copy of the config with secret fields masked, for logging.
func (c *Config) MaskedCopy() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := &Config{
		Telegram:  c.Telegram,
		Database:  c.Database,
		Bot:       c.Bot,
		Telemetry: c.Telemetry,
	}
	maskNonEmpty(&cp.Telegram.Token)
	maskNonEmpty(&cp.Database.PostgresDSN)
	if len(c.Telemetry.Headers) > 0 {
		cp.Telemetry.Headers = make(map[string]string, len(c.Telemetry.Headers))
		for k := range c.Telemetry.Headers {
			cp.Telemetry.Headers[k] = secretMask
		}
	}
	return cp
}

// SQLitePath returns the expanded standalone database path.
func (c *Config) SQLitePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Database.SQLitePath)
}

func maskNonEmpty(s *string) {
	if *s != "" {
		*s = secretMask
	}
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
