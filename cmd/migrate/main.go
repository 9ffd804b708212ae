package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/storage/migrations"
	"github.com/gravadigital/eventhub-api/internal/storage/postgres"
)

var (
	logLevel string
	steps    int
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize(logLevel)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer postgres.Close(db)

		log := logger.Migration()
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("Migrations completed successfully")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		db, err := connect()
		if err != nil {
			return err
		}
		defer postgres.Close(db)

		log := logger.Migration()
		for i := 0; i < steps; i++ {
			if err := migrations.RollbackMigration(db); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
		}
		log.Info("Rollback completed", "steps", steps)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer postgres.Close(db)

		applied, err := migrations.Applied(db)
		if err != nil {
			return err
		}
		done := make(map[string]bool, len(applied))
		for _, m := range applied {
			done[m.ID] = true
		}

		out := cmd.OutOrStdout()
		for _, m := range migrations.GetMigrations() {
			state := "pending"
			if done[m.ID] {
				state = "applied"
			}
			fmt.Fprintf(out, "%s  %-8s %s\n", m.ID, state, m.Name)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print table, index and connection statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer postgres.Close(db)

		report, err := postgres.NewStatsCollector(db).Report(context.Background())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd, statsCmd)
}

func connect() (*gorm.DB, error) {
	db, err := postgres.Connect(config.Load())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
