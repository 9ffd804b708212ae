package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/logger"
)

// Migration represents a database migration
type Migration struct {
	ID   string
	Name string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// GetMigrations returns all available migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			ID:   "001",
			Name: "create_extensions",
			Up:   migration001Up,
			Down: migration001Down,
		},
		{
			ID:   "002",
			Name: "create_core_tables",
			Up:   migration002Up,
			Down: migration002Down,
		},
		{
			ID:   "003",
			Name: "create_indexes",
			Up:   migration003Up,
			Down: migration003Down,
		},
		{
			ID:   "004",
			Name: "create_constraints_and_triggers",
			Up:   migration004Up,
			Down: migration004Down,
		},
	}
}

// lockKey serializes migration runs across replicas starting at the same time
const lockKey int64 = 0x6576656e74687562

// ErrNothingToRollback is returned when no migration has been applied
var ErrNothingToRollback = errors.New("no migrations to rollback")

// RunMigrations applies every pending migration. Each one runs in its own
// transaction holding a transaction-scoped advisory lock, and is skipped if
// another process recorded it first.
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range GetMigrations() {
		ran := false
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", lockKey).Error; err != nil {
				return fmt.Errorf("failed to acquire migration lock: %w", err)
			}
			done, err := isApplied(tx, m.ID)
			if err != nil {
				return err
			}
			if done {
				return nil
			}

			log.Info("Running migration", "id", m.ID, "name", m.Name)
			start := time.Now()
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("failed to run migration %s: %w", m.ID, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (id, name) VALUES (?, ?)", m.ID, m.Name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
			}
			log.Info("Applied migration", "id", m.ID, "duration", time.Since(start))
			ran = true
			return nil
		})
		if err != nil {
			return err
		}
		if ran {
			applied++
		}
	}

	log.Info("Schema is up to date", "applied", applied)
	return nil
}

// RollbackMigration reverts the most recently applied migration
func RollbackMigration(db *gorm.DB) error {
	log := logger.Migration()

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", lockKey).Error; err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}

		var last AppliedMigration
		err := tx.Raw("SELECT id, name, applied_at FROM schema_migrations ORDER BY id DESC LIMIT 1").Scan(&last).Error
		if err != nil {
			return fmt.Errorf("failed to get last migration: %w", err)
		}
		if last.ID == "" {
			return ErrNothingToRollback
		}

		m, ok := find(last.ID)
		if !ok {
			return fmt.Errorf("migration %s is recorded but unknown to this build", last.ID)
		}

		log.Info("Rolling back migration", "id", m.ID, "name", m.Name)
		if err := m.Down(tx); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", m.ID, err)
		}
		if err := tx.Exec("DELETE FROM schema_migrations WHERE id = ?", m.ID).Error; err != nil {
			return fmt.Errorf("failed to unrecord migration %s: %w", m.ID, err)
		}
		log.Info("Rolled back migration", "id", m.ID)
		return nil
	})
}

// AppliedMigration is a row of the tracking table
type AppliedMigration struct {
	ID        string
	Name      string
	AppliedAt time.Time
}

// Applied lists the migrations recorded in the tracking table, oldest first
func Applied(db *gorm.DB) ([]AppliedMigration, error) {
	if err := createMigrationsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	var applied []AppliedMigration
	err := db.Raw("SELECT id, name, applied_at FROM schema_migrations ORDER BY id").Scan(&applied).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	return applied, nil
}

// Pending returns the known migrations missing from applied, in order
func Pending(applied []AppliedMigration) []Migration {
	done := make(map[string]bool, len(applied))
	for _, a := range applied {
		done[a.ID] = true
	}
	var pending []Migration
	for _, m := range GetMigrations() {
		if !done[m.ID] {
			pending = append(pending, m)
		}
	}
	return pending
}

func createMigrationsTable(db *gorm.DB) error {
	return db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            id VARCHAR(10) PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )
    `).Error
}

func isApplied(db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM schema_migrations WHERE id = ?", id).Scan(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", id, err)
	}
	return count > 0, nil
}

func find(id string) (Migration, bool) {
	for _, m := range GetMigrations() {
		if m.ID == id {
			return m, true
		}
	}
	return Migration{}, false
}
