package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
	"github.com/nextlevelbuilder/goalkeeper/internal/secrets"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/pkg/protocol"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/goalkeeper/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "goalkeeper",
	Short: "Goalkeeper: goal tracking Telegram bot",
	Long:  "Goalkeeper polls Telegram and lets linked users list their goals and create new ones through a short dialog.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBot(); err != nil {
			slog.Error("bot stopped", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json5 or $GOALKEEPER_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(linkCmd())
	rootCmd.AddCommand(doctorCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("goalkeeper %s (protocol %d)\n", Version, protocol.ProtocolVersion)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("GOALKEEPER_CONFIG"); v != "" {
		return v
	}
	return "config.json5"
}

// setupLogging installs the default structured logger.
func setupLogging() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// storeConfig picks Postgres in managed mode and the SQLite file otherwise.
func storeConfig(cfg *config.Config) store.StoreConfig {
	if cfg.IsManagedMode() {
		return store.StoreConfig{PostgresDSN: cfg.Database.PostgresDSN}
	}
	return store.StoreConfig{SQLitePath: cfg.SQLitePath()}
}

// ensureSQLiteDir creates the directory holding the standalone database.
func ensureSQLiteDir(sc store.StoreConfig) error {
	if sc.PostgresDSN != "" || sc.SQLitePath == "" || sc.SQLitePath == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(sc.SQLitePath), 0755)
}

// resolveTelegramToken fetches the bot token from Parameter Store when only a
// parameter name is configured.
func resolveTelegramToken(ctx context.Context, cfg *config.Config) error {
	if cfg.Telegram.Token != "" || cfg.Telegram.TokenParameter == "" {
		return nil
	}
	ps, err := secrets.NewParamStoreFromEnv(ctx)
	if err != nil {
		return err
	}
	if err := secrets.ResolveTelegramToken(ctx, &cfg.Telegram, ps); err != nil {
		return err
	}
	slog.Info("telegram token loaded from parameter store", "parameter", cfg.Telegram.TokenParameter)
	return nil
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
