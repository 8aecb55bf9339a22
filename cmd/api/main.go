package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/eventmaster-api/internal/auth"
	"github.com/gravadigital/eventmaster-api/internal/blob"
	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/locker"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/publisher"
	"github.com/gravadigital/eventmaster-api/internal/server"
	"github.com/gravadigital/eventmaster-api/internal/storage"
	"github.com/gravadigital/eventmaster-api/internal/textgen"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageType, err := storage.ValidateStorageType(cfg.Storage.Backend)
	if err != nil {
		log.Fatal("Invalid storage backend", "error", err)
	}
	repos, err := storage.NewFactory(storageType).CreateContainer(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage", "backend", storageType, "error", err)
	}
	defer repos.CloseWithTimeout(10 * time.Second)

	var blobs blob.Store
	if cfg.Storage.Endpoint != "" {
		store, err := blob.NewMinioStore(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize object storage", "endpoint", cfg.Storage.Endpoint, "error", err)
		}
		blobs = store
	} else {
		log.Warn("MINIO_ENDPOINT not set, keeping uploads in memory")
		blobs = blob.NewMemoryStore("")
	}

	var locks locker.Locker = locker.NewLocal()
	if cfg.Redis.Addr != "" {
		pool := locker.NewPool(cfg.Redis.Addr, cfg.Redis.Password)
		defer pool.Close()
		locks = locker.NewRedis(pool, "eventmaster:", cfg.Redis.LockTTL)
		log.Info("Using Redis import locks", "addr", cfg.Redis.Addr)
	}

	var pub publisher.Publisher = publisher.Noop{}
	if cfg.Rabbit.URL != "" {
		rabbit, err := publisher.NewRabbit(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ, check-in events disabled", "error", err)
		} else {
			pub = rabbit
		}
	}
	defer pub.Close()

	provider := auth.NewProvider(repos, cfg)
	unsubscribe := provider.OnAuthChange(func(change auth.Change) {
		logger.Integration("auth").Debug("Auth state changed", "kind", change.Kind, "email", change.User.Email)
	})
	defer unsubscribe()

	srv := server.New(cfg, server.Dependencies{
		Repos:     repos,
		Blobs:     blobs,
		Generator: textgen.NewGemini(cfg),
		Locks:     locks,
		Publisher: pub,
		Auth:      provider,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}

	log.Info("Server exited")
}
