package main

// Apply file_metadata migrations:
//   go run ./cmd/migrate
// Roll back the latest one:
//   go run ./cmd/migrate -down

import (
	"context"
	"flag"
	"os"

	"file-management-api/internal/bootstrap"
	"file-management-api/internal/shared/config"
	"file-management-api/internal/shared/storage/db"
	"file-management-api/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("migrate.config", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Init(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	opts := bootstrap.DBOptions(cfg.DBPool, db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if *down {
		err = db.RollbackLast(ctx, sqlDB)
	} else {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err, "down": *down})
		sqlDB.Close()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"down": *down})
}
