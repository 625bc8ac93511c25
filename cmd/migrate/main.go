package main

// Run database migrations:
//   go run ./cmd/migrate            (up)
//   go run ./cmd/migrate -cmd down  (roll back the latest)
//   go run ./cmd/migrate -cmd status

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/config"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/db"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up, down or status")
	flag.Parse()

	cfg := config.Load()
	if err := run(context.Background(), cfg.DatabaseURL, *cmd); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"cmd": *cmd, "err": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"cmd": *cmd})
}

func run(ctx context.Context, databaseURL, cmd string) error {
	target, err := db.ParseURL(databaseURL)
	if err != nil {
		return err
	}

	sqlDB, err := db.Connect(ctx, databaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	switch cmd {
	case "up":
		return db.RunMigrations(ctx, sqlDB, target.Dialect)
	case "down":
		return db.RollbackMigration(ctx, sqlDB, target.Dialect)
	case "status":
		return db.MigrationStatus(ctx, sqlDB, target.Dialect)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
