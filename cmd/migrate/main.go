package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status|reset]

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/bads1de/CareerRise/internal/shared/config"
	"github.com/bads1de/CareerRise/internal/shared/storage/db"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

func main() {
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileMigrate))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command); err != nil {
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
}
