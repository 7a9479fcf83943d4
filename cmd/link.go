package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goalkeeper/internal/channels/telegram"
	"github.com/nextlevelbuilder/goalkeeper/internal/config"
	"github.com/nextlevelbuilder/goalkeeper/internal/identity"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/internal/store/sqlstore"
	"github.com/nextlevelbuilder/goalkeeper/internal/upgrade"
)

const linkedNotice = "Your chat is now linked to your account. Send /help to see what I can do."

func linkCmd() *cobra.Command {
	var (
		username string
		notify   bool
	)
	cmd := &cobra.Command{
		Use:   "link <code>",
		Short: "Link a Telegram chat to an account using its verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			if strings.TrimSpace(username) == "" {
				return errors.New("--user is required")
			}
			return runLink(cmd.Context(), args[0], username, notify)
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username of the account to link")
	cmd.Flags().BoolVar(&notify, "notify", true, "send a confirmation message to the linked chat")
	return cmd
}

func runLink(ctx context.Context, code, username string, notify bool) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	sc := storeConfig(cfg)
	db, dialect, err := sqlstore.Open(ctx, sc)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := upgrade.Ensure(ctx, db, sc, false); err != nil {
		return err
	}
	stores := sqlstore.NewStores(db, dialect)

	resolver := identity.NewResolver(stores.TgUsers, stores.Users)
	linked, err := resolver.Link(ctx, code, username)
	switch {
	case errors.Is(err, identity.ErrInvalidCode):
		return fmt.Errorf("no chat is waiting for code %q", identity.NormalizeCode(code))
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("user %q not found", username)
	case err != nil:
		return err
	}
	fmt.Printf("Linked chat %d to user %s\n", linked.ChatID, username)

	if !notify {
		return nil
	}
	if err := notifyLinked(ctx, cfg, linked.ChatID); err != nil {
		slog.Warn("could not notify linked chat", "chat_id", linked.ChatID, "error", err)
	}
	return nil
}

func notifyLinked(ctx context.Context, cfg *config.Config, chatID int64) error {
	if err := resolveTelegramToken(ctx, cfg); err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token not configured")
	}
	tg, err := telegram.New(cfg.Telegram)
	if err != nil {
		return err
	}
	return tg.Send(ctx, chatID, linkedNotice)
}
