package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/database"
	"github.com/vancomm/minesweeper/internal/logging"
)

func main() {
	logger := logging.New(os.Stderr, config.Development())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	db, migrator, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		logger.Error("failed to connect to db", slog.Any("error", err))
		os.Exit(1)
	}
	db.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		logger.Error("failed to check migration version", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migration successful", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}
