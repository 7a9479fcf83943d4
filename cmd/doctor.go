package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/internal/store/sqlstore"
	"github.com/nextlevelbuilder/goalkeeper/internal/upgrade"
	"github.com/nextlevelbuilder/goalkeeper/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, database and schema health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) {
	fmt.Println("goalkeeper doctor")
	fmt.Printf("  Version:  %s (protocol %d)\n", Version, protocol.ProtocolVersion)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  Config invalid: %s\n", err)
	}
	if out, err := effectiveConfig(cfg); err != nil {
		fmt.Printf("  Config dump error: %s\n", err)
	} else {
		fmt.Println("  Effective config (secrets masked):")
		fmt.Println(out)
	}

	// Telegram
	fmt.Println()
	fmt.Println("  Telegram:")
	switch {
	case cfg.Telegram.Token != "":
		fmt.Printf("    %-12s %s\n", "Token:", maskToken(cfg.Telegram.Token))
	case cfg.Telegram.TokenParameter != "":
		fmt.Printf("    %-12s from SSM parameter %s\n", "Token:", cfg.Telegram.TokenParameter)
	default:
		fmt.Printf("    %-12s (not configured)\n", "Token:")
	}
	if cfg.Telegram.Proxy != "" {
		fmt.Printf("    %-12s %s\n", "Proxy:", cfg.Telegram.Proxy)
	}

	// Database
	fmt.Println()
	fmt.Println("  Database:")
	sc := storeConfig(cfg)
	if sc.PostgresDSN != "" {
		fmt.Printf("    %-12s managed (postgres)\n", "Mode:")
	} else {
		fmt.Printf("    %-12s standalone (%s)\n", "Mode:", sc.SQLitePath)
	}

	if missingSQLiteFile(sc) {
		fmt.Printf("    %-12s NOT FOUND (created by: goalkeeper migrate up)\n", "Status:")
	} else if db, _, err := sqlstore.Open(ctx, sc); err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
	} else {
		defer db.Close()
		fmt.Printf("    %-12s OK\n", "Status:")
		checkSchema(ctx, db)
	}

	// Telemetry
	fmt.Println()
	if cfg.Telemetry.Enabled {
		fmt.Printf("  Telemetry: %s via %s\n", cfg.Telemetry.Endpoint, cfg.Telemetry.Protocol)
	} else {
		fmt.Println("  Telemetry: disabled")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkSchema(ctx context.Context, db *sql.DB) {
	s, err := upgrade.CheckSchema(ctx, db)
	switch {
	case err != nil:
		fmt.Printf("    %-12s CHECK FAILED (%s)\n", "Schema:", err)
		return
	case s.Dirty:
		fmt.Printf("    %-12s v%d (DIRTY, run: goalkeeper migrate force %d)\n", "Schema:", s.CurrentVersion, s.CurrentVersion-1)
		return
	case s.Compatible:
		fmt.Printf("    %-12s v%d (up to date)\n", "Schema:", s.CurrentVersion)
	case s.CurrentVersion > s.RequiredVersion:
		fmt.Printf("    %-12s v%d (binary too old, requires v%d)\n", "Schema:", s.CurrentVersion, s.RequiredVersion)
		return
	default:
		fmt.Printf("    %-12s v%d (upgrade needed, run: goalkeeper migrate up)\n", "Schema:", s.CurrentVersion)
		return
	}

	var linked, pending int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(user_id), COUNT(verification_code) FROM tg_users").Scan(&linked, &pending)
	if err != nil {
		fmt.Printf("    %-12s (could not query chats: %s)\n", "Chats:", err)
		return
	}
	fmt.Printf("    %-12s %d linked, %d waiting for a code to be linked\n", "Chats:", linked, pending)
}

// effectiveConfig renders cfg as indented JSON with secrets masked.
func effectiveConfig(cfg *config.Config) (string, error) {
	masked := cfg.MaskedCopy()
	data, err := json.MarshalIndent(struct {
		*config.Config
		TelegramToken string `json:"telegram_token,omitempty"`
		PostgresDSN   string `json:"postgres_dsn,omitempty"`
	}{masked, masked.Telegram.Token, masked.Database.PostgresDSN}, "    ", "  ")
	if err != nil {
		return "", err
	}
	return "    " + string(data), nil
}

// missingSQLiteFile reports whether a standalone database file does not exist yet.
// Opening it would create an empty file.
func missingSQLiteFile(sc store.StoreConfig) bool {
	if sc.PostgresDSN != "" || sc.SQLitePath == "" || sc.SQLitePath == ":memory:" {
		return false
	}
	_, err := os.Stat(sc.SQLitePath)
	return errors.Is(err, fs.ErrNotExist)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
