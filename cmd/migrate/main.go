package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/okaracan/coursebook/internal/app/migrations"
	"github.com/okaracan/coursebook/internal/bootstrap"
	"github.com/okaracan/coursebook/internal/db"
	"github.com/okaracan/coursebook/internal/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration tool for the courses database",
	}

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rollbackCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// connect loads config, sets up logging and opens the database pool.
func connect() (*pgxpool.Pool, *migrations.Migrator, *migrations.PostgresStore, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := migrations.Catalog(lgr)
	store := migrations.NewPostgresStore(database.Pool)
	return database.Pool, migrator, store, nil
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, migrator, store, err := connect()
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		applied, err := migrator.ApplyPending(ctx, store)
		if err != nil {
			return err
		}

		if len(applied) == 0 {
			fmt.Println("No pending migrations")
			return nil
		}
		for _, step := range applied {
			fmt.Printf("Applied %d %s\n", step.ID, step.Name)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, migrator, store, err := connect()
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pending, err := migrator.Pending(ctx, store)
		if err != nil {
			return err
		}

		pendingSet := make(map[int64]bool, len(pending))
		for _, step := range pending {
			pendingSet[step.ID] = true
		}

		for _, step := range migrator.Steps() {
			state := "applied"
			if pendingSet[step.ID] {
				state = "pending"
			}
			fmt.Printf("%-8d %-30s %s\n", step.ID, step.Name, state)
		}
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [target-id]",
	Short: "Revert every migration above the target id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("target id must be an integer: %w", err)
		}

		pool, migrator, store, err := connect()
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		reverted, err := migrator.Rollback(ctx, store, targetID)
		if err != nil {
			return err
		}

		if len(reverted) == 0 {
			fmt.Println("Nothing to roll back")
			return nil
		}
		for _, step := range reverted {
			fmt.Printf("Rolled back %d %s\n", step.ID, step.Name)
		}
		return nil
	},
}
