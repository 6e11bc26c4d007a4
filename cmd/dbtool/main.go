package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"landmark-tour-service/internal/adapters/repositories"
	"landmark-tour-service/internal/config"
	"landmark-tour-service/internal/platform/db"
	"landmark-tour-service/internal/platform/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	logging.Setup(config.Get("LOG_LEVEL", "info"), "text")

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		slog.Error("open database failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/landmarks.json")
	if err := initAndSeed(context.Background(), pg, seedPath); err != nil {
		slog.Error("dbtool failed", "error", err)
		pg.Close()
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, pg *sql.DB, seedPath string) error {
	slog.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, pg); err != nil {
		return fmt.Errorf("schema initialization: %w", err)
	}
	slog.Info("schema ready")

	slog.Info("seeding database", "path", seedPath)
	if err := repositories.SeedFromJSON(ctx, pg, seedPath); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	slog.Info("seeding complete")

	return nil
}
