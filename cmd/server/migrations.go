package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/learnflex/learnflex-api/internal/platform/postgres"
)

var migrationCommands = []string{"up", "down", "status", "version", "reset", "redo", "up-to", "down-to"}

// handleMigrations runs one goose command against the embedded migrations.
func handleMigrations(ctx context.Context, db *sql.DB, command, arg string, logger *slog.Logger) error {
	if !slices.Contains(migrationCommands, command) {
		return fmt.Errorf("unknown migration command %q", command)
	}
	var args []string
	if arg != "" {
		args = append(args, arg)
	}

	logger.Info("executing migrations", "command", command)
	if err := postgres.Migrate(ctx, db, command, logger, args...); err != nil {
		return err
	}
	logger.Info("migrations finished", "command", command)
	return nil
}
