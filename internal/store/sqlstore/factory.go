// Package sqlstore implements the store interfaces over database/sql.
// Postgres (managed mode) goes through the pgx stdlib driver, SQLite
// (standalone mode) through modernc.org/sqlite. Queries are built with
// squirrel so the placeholder format follows the dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) builder() sq.StatementBuilderType {
	if d == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Open connects to Postgres when cfg.PostgresDSN is set and to SQLite otherwise.
func Open(ctx context.Context, cfg store.StoreConfig) (*sql.DB, Dialect, error) {
	if cfg.PostgresDSN != "" {
		db, err := OpenPostgres(ctx, cfg.PostgresDSN)
		return db, DialectPostgres, err
	}
	db, err := OpenSQLite(ctx, cfg.SQLitePath)
	return db, DialectSQLite, err
}

// OpenPostgres opens and pings a Postgres pool through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database file. SQLite allows a single writer, so the
// pool is capped at one connection; this also keeps ":memory:" databases shared.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return db, nil
}

// NewStores creates all stores backed by db.
func NewStores(db *sql.DB, dialect Dialect) *store.Stores {
	return &store.Stores{
		TgUsers: NewTgUserStore(db, dialect),
		Users:   NewUserStore(db, dialect),
		Goals:   NewGoalStore(db, dialect),
		Offsets: NewOffsetStore(db, dialect),
	}
}
