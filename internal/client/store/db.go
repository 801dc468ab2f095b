package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkrasnovs/fieldsync/internal/client/store/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens the local database at dsn and brings its schema up to date.
// The caller is expected to have registered the "sqlite" driver
// (blank-import modernc.org/sqlite).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	// single connection: avoids SQLITE_BUSY under concurrent writers and
	// keeps ":memory:" databases coherent across the pool
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}

	return db, nil
}
