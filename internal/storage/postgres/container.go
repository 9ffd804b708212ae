package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/storage/migrations"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// Container implements repository.Container on PostgreSQL
type Container struct {
	db           *gorm.DB
	log          *log.Logger
	userRepo     *PostgresUserRepository
	eventRepo    *PostgresEventRepository
	chatRepo     *PostgresChatRepository
	feedbackRepo *PostgresFeedbackRepository
}

// NewContainer connects, runs pending migrations and builds the repositories
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(context.Background()); err != nil {
		log.Error("Container health check failed", "error", err)
		_ = Close(db)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:           db,
		log:          logger.Repository("postgres_container"),
		userRepo:     NewPostgresUserRepository(db),
		eventRepo:    NewPostgresEventRepository(db),
		chatRepo:     NewPostgresChatRepository(db),
		feedbackRepo: NewPostgresFeedbackRepository(db),
	}
}

func (c *Container) Users() repository.UserRepository {
	return c.userRepo
}

func (c *Container) Events() repository.EventRepository {
	return c.eventRepo
}

func (c *Container) Chat() repository.ChatRepository {
	return c.chatRepo
}

func (c *Container) Feedback() repository.FeedbackRepository {
	return c.feedbackRepo
}

// Health pings the database and checks every managed table is queryable
func (c *Container) Health(ctx context.Context) error {
	c.log.Debug("Performing container health check...")

	if err := HealthCheckContext(ctx, c.db); err != nil {
		c.log.Error("Database health check failed", "error", err)
		return translate(err, "database")
	}

	for _, table := range migrations.Tables() {
		var count int64
		if err := c.db.WithContext(ctx).Table(table).Limit(1).Count(&count).Error; err != nil {
			c.log.Error("Repository health check failed", "table", table, "error", err)
			return translate(fmt.Errorf("table %s: %w", table, err), table)
		}
	}

	c.log.Debug("Container health check completed successfully")
	return nil
}

// Close shuts down the connection pool, giving up when ctx expires
func (c *Container) Close(ctx context.Context) error {
	c.log.Info("Closing PostgreSQL repository container...")

	done := make(chan error, 1)
	go func() {
		done <- Close(c.db)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.log.Error("Container close operation timed out")
		return fmt.Errorf("container close operation timed out: %w", ctx.Err())
	}
}

// GetDB returns the underlying database connection
func (c *Container) GetDB() *gorm.DB {
	return c.db
}
