package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/migrations"
)

// Pool sizing for the door scanners and import uploads sharing one database.
const (
	maxOpenConns    = 50
	maxIdleConns    = 10
	connMaxLifetime = time.Hour
	connMaxIdleTime = 15 * time.Minute

	connectAttempts = 3
	pingTimeout     = 5 * time.Second
)

// Connect opens the event database, retrying with backoff while the server
// is still starting up.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	log := logger.Database()

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	level := gormLogger.Silent
	if cfg.Server.GinMode == "debug" {
		level = gormLogger.Info
	}
	gormConfig := &gorm.Config{
		Logger:         gormLogger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		PrepareStmt:    true,
		TranslateError: true,
	}

	var (
		db    *gorm.DB
		err   error
		delay = 2 * time.Second
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if db, err = gorm.Open(postgres.Open(cfg.GetDatabaseURL()), gormConfig); err == nil {
			break
		}
		log.Warn("Database connection failed", "attempt", attempt, "error", err)
		if attempt < connectAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	if err := HealthCheck(db); err != nil {
		return nil, err
	}

	log.Info("Connected to event database", "host", cfg.DB.Host, "database", cfg.DB.Name, "max_open_conns", maxOpenConns)
	return db, nil
}

func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	// Password may be empty for local development.
	for name, v := range map[string]string{
		"host": cfg.DB.Host,
		"port": cfg.DB.Port,
		"name": cfg.DB.Name,
		"user": cfg.DB.User,
	} {
		if v == "" {
			return fmt.Errorf("database %s cannot be empty", name)
		}
	}
	return nil
}

// HealthCheck pings the database.
func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return errors.New("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// AutoMigrate brings the schema for events, guests and the registry up to date.
func AutoMigrate(db *gorm.DB) error {
	log := logger.Migration()

	if err := HealthCheck(db); err != nil {
		return err
	}

	start := time.Now()
	if err := migrations.RunMigrations(db); err != nil {
		log.Error("Database migrations failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed", "duration", time.Since(start))
	return nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	stats := sqlDB.Stats()
	logger.Database().Debug("Closing event database", "open_connections", stats.OpenConnections, "in_use", stats.InUse)

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetConnectionInfo reports pool statistics for the ping endpoint and logs.
func GetConnectionInfo(db *gorm.DB) map[string]interface{} {
	if db == nil {
		return map[string]interface{}{"connected": false, "error": "no database connection"}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return map[string]interface{}{"connected": false, "error": err.Error()}
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"connected":            true,
		"open_connections":     stats.OpenConnections,
		"in_use_connections":   stats.InUse,
		"idle_connections":     stats.Idle,
		"max_open_connections": stats.MaxOpenConnections,
		"wait_count":           stats.WaitCount,
	}
}
