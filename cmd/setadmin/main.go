// Command setadmin grants the admin role to the player with the given email.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/database"
	"github.com/vancomm/minesweeper/internal/logging"
	"github.com/vancomm/minesweeper/internal/repository"
)

func main() {
	email := flag.String("email", "", "email of the player to promote")
	role := flag.String("role", repository.RoleAdmin, "role to grant (user or admin)")
	flag.Parse()

	logger := logging.New(os.Stderr, config.Development())

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: setadmin -email <address> [-role admin|user]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	db, err := database.Connect(ctx)
	if err != nil {
		logger.Error("failed to connect to db", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	player, err := repository.New(db).UpdatePlayerRoleByEmail(
		ctx, strings.ToLower(strings.TrimSpace(*email)), *role,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Error("player not found", slog.String("email", *email))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to update role", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info(
		"role updated",
		slog.Int64("player_id", player.PlayerId),
		slog.String("username", player.Username),
		slog.String("role", player.Role),
	)
}
