package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/goalkeeper/internal/bus"
	"github.com/nextlevelbuilder/goalkeeper/internal/channels"
	"github.com/nextlevelbuilder/goalkeeper/internal/config"
)

// maxMessageLen is the Telegram limit for a single text message.
const maxMessageLen = 4096

// Channel connects to Telegram via the Bot API using explicit getUpdates calls.
// Offsets are owned by the caller so that they can be persisted.
type Channel struct {
	bot         *telego.Bot
	config      config.TelegramConfig
	limiter     *rate.Limiter
	pollTimeout int
}

var _ channels.Source = (*Channel)(nil)

// New creates a new Telegram channel from config.
func New(cfg config.TelegramConfig) (*Channel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	rps := cfg.SendRPS
	if rps <= 0 {
		rps = config.DefaultSendRPS
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = config.DefaultSendBurst
	}

	return &Channel{
		bot:         bot,
		config:      cfg,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Name returns the source identifier.
func (c *Channel) Name() string { return "telegram" }

// Fetch long-polls getUpdates starting at offset.
func (c *Channel) Fetch(ctx context.Context, offset int) ([]bus.Update, error) {
	updates, err := c.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:         offset,
		Timeout:        c.pollTimeout,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	out := make([]bus.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, toUpdate(u))
	}
	return out, nil
}

// Send delivers a plain text message, waiting on the outbound rate limiter.
// Texts over the Telegram limit are split into several messages.
func (c *Channel) Send(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitText(text, maxMessageLen) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), chunk)); err != nil {
			return fmt.Errorf("telegram sendMessage to %d: %w", chatID, err)
		}
	}
	return nil
}

// toUpdate converts a Telegram update. Only messages carrying text (or a media
// caption) become bus messages; everything else keeps its id so the offset still
// advances past it.
func toUpdate(u telego.Update) bus.Update {
	out := bus.Update{UpdateID: u.UpdateID}

	msg := u.Message
	if msg == nil {
		updateType := "unknown"
		switch {
		case u.EditedMessage != nil:
			updateType = "edited_message"
		case u.ChannelPost != nil:
			updateType = "channel_post"
		case u.MyChatMember != nil:
			updateType = "my_chat_member"
		case u.ChatMember != nil:
			updateType = "chat_member"
		}
		slog.Debug("telegram update skipped (no message)", "type", updateType, "update_id", u.UpdateID)
		return out
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		slog.Debug("telegram update skipped (no text)", "update_id", u.UpdateID, "chat_id", msg.Chat.ID)
		return out
	}

	m := &bus.Message{ChatID: msg.Chat.ID, Text: text}
	if msg.From != nil {
		m.UserID = msg.From.ID
		m.Username = msg.From.Username
	}
	out.Message = m
	return out
}

// splitText breaks text into chunks of at most limit bytes, preferring line breaks.
func splitText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = channels.RuneCut(text, limit)
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
