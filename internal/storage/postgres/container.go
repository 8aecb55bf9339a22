package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// repoSet holds one instance of every repository bound to a *gorm.DB,
// which may be the pool or a transaction.
type repoSet struct {
	events        EventRepository
	registry      RegistryRepository
	guests        GuestRepository
	reminders     ReminderRepository
	staff         StaffRepository
	accounts      AccountRepository
	revokedTokens RevokedTokenRepository
	importBatches ImportBatchRepository
}

func newRepoSet(db *gorm.DB) repoSet {
	return repoSet{
		events:        NewPostgresEventRepository(db),
		registry:      NewPostgresRegistryRepository(db),
		guests:        NewPostgresGuestRepository(db),
		reminders:     NewPostgresReminderRepository(db),
		staff:         NewPostgresStaffRepository(db),
		accounts:      NewPostgresAccountRepository(db),
		revokedTokens: NewPostgresRevokedTokenRepository(db),
		importBatches: NewPostgresImportBatchRepository(db),
	}
}

func (s repoSet) Events() EventRepository { return s.events }
func (s repoSet) Registry() RegistryRepository { return s.registry }
func (s repoSet) Guests() GuestRepository { return s.guests }
func (s repoSet) Reminders() ReminderRepository { return s.reminders }
func (s repoSet) Staff() StaffRepository { return s.staff }
func (s repoSet) Accounts() AccountRepository { return s.accounts }
func (s repoSet) RevokedTokens() RevokedTokenRepository { return s.revokedTokens }
func (s repoSet) ImportBatches() ImportBatchRepository { return s.importBatches }

var tables = []string{"events", "registry", "guests", "reminders", "users", "accounts", "revoked_tokens", "import_batches"}

// Container implements RepositoryContainer interface
type Container struct {
	repoSet
	db  *gorm.DB
	log *log.Logger
}

// NewContainer creates a new repository container with all repositories initialized
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
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(); err != nil {
		log.Error("Container health check failed", "error", err)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		repoSet: newRepoSet(db),
		db:      db,
		log:     logger.Repository("postgres_container"),
	}
}

// WithinTransaction runs fn with repositories bound to one transaction.
func (c *Container) WithinTransaction(ctx context.Context, fn func(tx Repositories) error) error {
	c.log.Debug("Database transaction started")

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepoSet(tx))
	})
	if err != nil {
		c.log.Warn("Database transaction rolled back", "error", err)
		return err
	}

	c.log.Debug("Database transaction committed successfully")
	return nil
}

// Health performs a health check on all repositories and database connection
func (c *Container) Health() error {
	c.log.Debug("Performing container health check...")

	if err := HealthCheck(c.db); err != nil {
		c.log.Error("Database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	info := GetConnectionInfo(c.db)
	c.log.Debug("Database connection metrics",
		"open_connections", info["open_connections"],
		"in_use_connections", info["in_use_connections"])

	for _, table := range tables {
		var count int64
		if err := c.db.Table(table).Limit(1).Count(&count).Error; err != nil {
			c.log.Error("Repository health check failed", "table", table, "error", err)
			return fmt.Errorf("table %s health check failed: %w", table, err)
		}
	}

	c.log.Debug("Container health check completed successfully")
	return nil
}

// Close gracefully shuts down the container and closes database connections
func (c *Container) Close() error {
	c.log.Info("Closing PostgreSQL repository container...")

	if c.db == nil {
		c.log.Warn("Database connection is nil, nothing to close")
		return nil
	}

	if err := Close(c.db); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	c.db = nil

	c.log.Info("PostgreSQL repository container closed successfully")
	return nil
}

// CloseWithTimeout closes the container with a timeout
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- c.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		c.log.Error("Container close operation timed out", "timeout", timeout)
		return fmt.Errorf("container close operation timed out after %v", timeout)
	}
}

// GetInfo returns information about the container and its repositories
func (c *Container) GetInfo() map[string]interface{} {
	return map[string]interface{}{
		"type":         "postgres",
		"repositories": tables,
		"database":     GetConnectionInfo(c.db),
	}
}

// GetDB returns the underlying database connection (for advanced usage)
func (c *Container) GetDB() *gorm.DB {
	return c.db
}
