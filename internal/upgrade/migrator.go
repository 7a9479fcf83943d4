package upgrade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/internal/store/sqlstore"
	"github.com/nextlevelbuilder/goalkeeper/migrations"
)

// NewMigrator opens a dedicated connection for cfg and returns a migrator over it.
// Migrations come from dir when set, otherwise from the copies embedded in the binary.
// Closing the migrator closes the connection.
func NewMigrator(ctx context.Context, cfg store.StoreConfig, dir string) (*migrate.Migrate, error) {
	db, dialect, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	drv, err := databaseDriver(db, dialect)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s migration driver: %w", dialect, err)
	}

	var m *migrate.Migrate
	if dir != "" {
		m, err = migrate.NewWithDatabaseInstance("file://"+dir, string(dialect), drv)
	} else {
		src, srcErr := iofs.New(migrations.FS, ".")
		if srcErr != nil {
			drv.Close()
			return nil, fmt.Errorf("open embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", src, string(dialect), drv)
	}
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func databaseDriver(db *sql.DB, dialect sqlstore.Dialect) (database.Driver, error) {
	switch dialect {
	case sqlstore.DialectPostgres:
		return postgres.WithInstance(db, &postgres.Config{})
	case sqlstore.DialectSQLite:
		return sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

// Up applies all pending migrations and returns the resulting version.
func Up(ctx context.Context, cfg store.StoreConfig, dir string) (uint, error) {
	m, err := NewMigrator(ctx, cfg, dir)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read version: %w", err)
	}
	slog.Info("migration complete", "version", v, "dirty", dirty)
	return v, nil
}

// Ensure checks the schema on db and brings it up to date when autoUpgrade is
// set. Dirty or newer schemas are never touched.
func Ensure(ctx context.Context, db *sql.DB, cfg store.StoreConfig, autoUpgrade bool) error {
	s, err := CheckSchema(ctx, db)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	if s.Compatible {
		slog.Info("schema check passed", "current", s.CurrentVersion, "required", s.RequiredVersion)
		return nil
	}
	if s.Dirty || s.CurrentVersion > s.RequiredVersion || !autoUpgrade {
		return fmt.Errorf("%w\n%s", s.Err(), FormatError(s))
	}

	slog.Info("auto-upgrade: applying migrations", "from", s.CurrentVersion, "to", s.RequiredVersion)
	if _, err := Up(ctx, cfg, ""); err != nil {
		return fmt.Errorf("auto-upgrade: %w", err)
	}
	return nil
}
