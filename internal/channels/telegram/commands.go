package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/goalkeeper/pkg/protocol"
)

// SyncMenuCommands registers bot commands with Telegram via setMyCommands.
func (c *Channel) SyncMenuCommands(ctx context.Context, commands []telego.BotCommand) error {
	if err := c.bot.DeleteMyCommands(ctx, nil); err != nil {
		slog.Debug("deleteMyCommands failed (may not exist)", "error", err)
	}

	if len(commands) == 0 {
		return nil
	}

	if len(commands) > 100 {
		commands = commands[:100]
	}

	return c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
}

// RegisterMenu syncs the default menu with up to three attempts.
// It gives up quietly: a missing menu does not affect command handling.
func (c *Channel) RegisterMenu(ctx context.Context) {
	commands := DefaultMenuCommands()
	for attempt := 1; attempt <= 3; attempt++ {
		err := c.SyncMenuCommands(ctx, commands)
		if err == nil {
			slog.Info("telegram menu commands synced")
			return
		}
		slog.Warn("failed to sync telegram menu commands", "error", err, "attempt", attempt)
		if attempt < 3 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt*5) * time.Second):
			}
		}
	}
}

// DefaultMenuCommands returns the default bot menu commands.
func DefaultMenuCommands() []telego.BotCommand {
	cmds := protocol.Commands()
	out := make([]telego.BotCommand, len(cmds))
	for i, c := range cmds {
		out[i] = telego.BotCommand{Command: c.Name, Description: c.Description}
	}
	return out
}

// Username returns the bot's username as reported by Telegram.
func (c *Channel) Username() string {
	return c.bot.Username()
}
