package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/migrations"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "Print which migrations have been applied")
	flag.Parse()

	log.Info("Starting migration process", "rollback", *rollback, "status", *status)

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.Close(db)

	switch {
	case *status:
		statuses, err := migrations.GetStatus(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		for _, s := range statuses {
			mark := " "
			if s.Applied {
				mark = "x"
			}
			fmt.Printf("[%s] %s %s\n", mark, s.ID, s.Name)
		}
		return
	case *rollback:
		log.Info("Rolling back migrations...")
		if err := migrations.RollbackMigration(db); err != nil {
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migration rollback completed successfully")
	default:
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations completed successfully")
	}

	fmt.Println("Migration process completed!")
}
