// Package poller runs the fetch, dispatch and reply cycle against a message source.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/goalkeeper/internal/bus"
	"github.com/nextlevelbuilder/goalkeeper/internal/channels"
	"github.com/nextlevelbuilder/goalkeeper/internal/sessions"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

const tracerName = "github.com/nextlevelbuilder/goalkeeper/internal/poller"

// Handler produces the replies for one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg bus.Message) ([]string, error)
}

// Config tunes the loop. Zero values fall back to defaults.
type Config struct {
	// Name keys the persisted offset. Defaults to the source name.
	Name string
	// MaxFetchTries bounds consecutive failed fetches before Run gives up.
	MaxFetchTries uint
	// InitialBackoff and MaxBackoff shape the exponential retry delay.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// DialogTTL drops dialogs idle for longer than this. Zero keeps them forever.
	DialogTTL time.Duration
}

// Loop polls a source and processes updates one at a time, in update-id order.
type Loop struct {
	source  channels.Source
	handler Handler
	offsets store.OffsetStore
	states  *sessions.Manager
	cfg     Config
	tracer  trace.Tracer
}

// New creates a Loop. states may be nil when DialogTTL is zero.
func New(source channels.Source, handler Handler, offsets store.OffsetStore, states *sessions.Manager, cfg Config) *Loop {
	if cfg.Name == "" {
		cfg.Name = source.Name()
	}
	if cfg.MaxFetchTries == 0 {
		cfg.MaxFetchTries = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Loop{
		source:  source,
		handler: handler,
		offsets: offsets,
		states:  states,
		cfg:     cfg,
		tracer:  otel.Tracer(tracerName),
	}
}

// Run polls until ctx is cancelled or fetching keeps failing.
// Cancellation is a clean stop and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	offset, err := l.offsets.Load(ctx, l.cfg.Name)
	if err != nil {
		return fmt.Errorf("load offset: %w", err)
	}
	slog.Info("poller started", "bot", l.cfg.Name, "offset", offset)

	for {
		if ctx.Err() != nil {
			slog.Info("poller stopped", "bot", l.cfg.Name, "offset", offset)
			return nil
		}

		updates, err := l.fetch(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("poller stopped", "bot", l.cfg.Name, "offset", offset)
				return nil
			}
			return err
		}

		for _, u := range updates {
			if ctx.Err() != nil {
				break
			}
			l.process(ctx, u)

			next := bus.NextOffset(offset, []bus.Update{u})
			if next == offset {
				continue
			}
			offset = next
			if err := l.offsets.Save(ctx, l.cfg.Name, offset); err != nil {
				slog.Warn("save offset failed", "bot", l.cfg.Name, "offset", offset, "error", err)
			}
		}

		l.pruneDialogs()
	}
}

func (l *Loop) fetch(ctx context.Context, offset int) ([]bus.Update, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.InitialBackoff
	b.MaxInterval = l.cfg.MaxBackoff

	updates, err := backoff.Retry(ctx, func() ([]bus.Update, error) {
		return l.source.Fetch(ctx, offset)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(l.cfg.MaxFetchTries),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("fetch updates failed, retrying", "source", l.source.Name(), "error", err, "retry_in", wait)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch updates from %s: %w", l.source.Name(), err)
	}
	return updates, nil
}

// process handles one update. Failures are logged and traced; they never stop the loop.
func (l *Loop) process(ctx context.Context, u bus.Update) {
	ctx, span := l.tracer.Start(ctx, "poller.update", trace.WithAttributes(
		attribute.String("bot", l.cfg.Name),
		attribute.Int("update.id", u.UpdateID),
		attribute.Bool("update.has_message", u.Message != nil),
	))
	defer span.End()

	if u.Message == nil {
		return
	}
	msg := *u.Message
	span.SetAttributes(attribute.Int64("chat.id", msg.ChatID))

	slog.Debug("update received", "update_id", u.UpdateID, "chat_id", msg.ChatID, "text", channels.Truncate(msg.Text, 64))

	replies, err := l.handler.Handle(ctx, msg)
	if err != nil {
		slog.Error("handle message failed", "update_id", u.UpdateID, "chat_id", msg.ChatID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	for _, text := range replies {
		if err := l.source.Send(ctx, msg.ChatID, text); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Warn("send reply failed", "chat_id", msg.ChatID, "error", err)
			span.RecordError(err)
		}
	}
	span.SetAttributes(attribute.Int("replies", len(replies)))
}

func (l *Loop) pruneDialogs() {
	if l.cfg.DialogTTL <= 0 || l.states == nil {
		return
	}
	if n := l.states.Prune(l.cfg.DialogTTL); n > 0 {
		slog.Info("expired idle dialogs", "count", n)
	}
}
