package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

func gooseDialect(dialect string) (string, string, error) {
	switch dialect {
	case DialectPostgres:
		return "postgres", "migrations/postgres", nil
	case DialectSQLite:
		return "sqlite3", "migrations/sqlite", nil
	}
	return "", "", fmt.Errorf("no migrations for dialect %q", dialect)
}

func withGoose(dialect string, fn func(dir string) error) error {
	name, dir, err := gooseDialect(dialect)
	if err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(name); err != nil {
		return err
	}
	return fn(dir)
}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, dialect string) error {
	if database == nil {
		return nil
	}
	return withGoose(dialect, func(dir string) error {
		return goose.UpContext(ctx, database, dir)
	})
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, database *sql.DB, dialect string) error {
	return withGoose(dialect, func(dir string) error {
		return goose.DownContext(ctx, database, dir)
	})
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, database *sql.DB, dialect string) error {
	return withGoose(dialect, func(dir string) error {
		return goose.StatusContext(ctx, database, dir)
	})
}
