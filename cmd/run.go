package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/goalkeeper/internal/channels/telegram"
	"github.com/nextlevelbuilder/goalkeeper/internal/config"
	"github.com/nextlevelbuilder/goalkeeper/internal/dialog"
	"github.com/nextlevelbuilder/goalkeeper/internal/identity"
	"github.com/nextlevelbuilder/goalkeeper/internal/poller"
	"github.com/nextlevelbuilder/goalkeeper/internal/sessions"
	"github.com/nextlevelbuilder/goalkeeper/internal/store/sqlstore"
	"github.com/nextlevelbuilder/goalkeeper/internal/tracing"
	"github.com/nextlevelbuilder/goalkeeper/internal/upgrade"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}
}

func runBot() error {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := resolveTelegramToken(ctx, cfg); err != nil {
		return err
	}

	// --- Storage ---
	// Standalone: SQLite file, migrated on startup.
	// Managed: Postgres, migrated on startup only with GOALKEEPER_AUTO_UPGRADE=true.
	storeCfg := storeConfig(cfg)
	if err := ensureSQLiteDir(storeCfg); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, dialect, err := sqlstore.Open(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	autoUpgrade := !cfg.IsManagedMode() || os.Getenv("GOALKEEPER_AUTO_UPGRADE") == "true"
	if err := upgrade.Ensure(ctx, db, storeCfg, autoUpgrade); err != nil {
		return err
	}
	stores := sqlstore.NewStores(db, dialect)
	slog.Info("store ready", "dialect", dialect)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	tg, err := telegram.New(cfg.Telegram)
	if err != nil {
		return err
	}

	states := sessions.NewManager()
	resolver := identity.NewResolver(stores.TgUsers, stores.Users)
	dispatcher := dialog.NewDispatcher(resolver, stores.Goals, states)
	loop := poller.New(tg, dispatcher, stores.Offsets, states, poller.Config{
		Name:          cfg.Bot.Name,
		MaxFetchTries: cfg.Bot.MaxFetchTries,
		DialogTTL:     cfg.Bot.DialogTTLDuration(),
	})

	slog.Info("goalkeeper starting", "version", Version, "bot", tg.Username(), "mode", cfg.Database.Mode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tg.RegisterMenu(gctx)
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("goalkeeper stopped")
	return nil
}
