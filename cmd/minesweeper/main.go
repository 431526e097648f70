package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vancomm/minesweeper/internal/app"
	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/logging"
	"github.com/vancomm/minesweeper/internal/mines"
)

func main() {
	development := config.Development()
	logger := logging.New(os.Stderr, development)

	logFile, _ := config.LogFile()
	if err := logging.SetupEngine(mines.Log, development, logFile); err != nil {
		logger.Error("failed to set up engine log", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(logger)
	if err := a.Start(ctx); err != nil {
		logger.Error("failed to start app", slog.Any("error", err))
		os.Exit(1)
	}
}
