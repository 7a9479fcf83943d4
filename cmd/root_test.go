package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

func TestStoreConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.SQLitePath = "/var/lib/goalkeeper/bot.db"
	assert.Equal(t, store.StoreConfig{SQLitePath: "/var/lib/goalkeeper/bot.db"}, storeConfig(cfg))

	cfg.Database.Mode = "managed"
	cfg.Database.PostgresDSN = "postgres://localhost/goals"
	assert.Equal(t, store.StoreConfig{PostgresDSN: "postgres://localhost/goals"}, storeConfig(cfg))
}

func TestEnsureSQLiteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, ensureSQLiteDir(store.StoreConfig{SQLitePath: filepath.Join(dir, "bot.db")}))
	assert.DirExists(t, dir)

	require.NoError(t, ensureSQLiteDir(store.StoreConfig{SQLitePath: ":memory:"}))
	require.NoError(t, ensureSQLiteDir(store.StoreConfig{PostgresDSN: "postgres://x"}))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("GOALKEEPER_CONFIG", "/etc/goalkeeper.json5")
	assert.Equal(t, "/etc/goalkeeper.json5", resolveConfigPath())

	cfgFile = "local.json5"
	t.Cleanup(func() { cfgFile = "" })
	assert.Equal(t, "local.json5", resolveConfigPath())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "1234*****wxyz", maskToken("123456789wxyz"))
	assert.Equal(t, "****", maskToken("abcd"))
}

func TestEffectiveConfig_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.Token = "123456:real-token"
	cfg.Database.Mode = "managed"
	cfg.Database.PostgresDSN = "postgres://u:hunter2@db/goals"
	cfg.Telemetry.Headers = map[string]string{"authorization": "Bearer abc"}

	out, err := effectiveConfig(cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "real-token")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "Bearer abc")
	assert.Contains(t, out, `"telegram_token": "***"`)
	assert.Contains(t, out, `"postgres_dsn": "***"`)
	assert.Contains(t, out, `"mode": "managed"`)
}

func TestMissingSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	sc := store.StoreConfig{SQLitePath: path}
	assert.True(t, missingSQLiteFile(sc))
	assert.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, nil, 0600))
	assert.False(t, missingSQLiteFile(sc))

	assert.False(t, missingSQLiteFile(store.StoreConfig{SQLitePath: ":memory:"}))
	assert.False(t, missingSQLiteFile(store.StoreConfig{PostgresDSN: "postgres://x"}))
}
