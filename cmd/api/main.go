// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/app"
	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/payment"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/infrastructure/database/inmemory"
	"github.com/your-org/fitness-backend/internal/infrastructure/database/postgres"
	redisdb "github.com/your-org/fitness-backend/internal/infrastructure/database/redis"
	"github.com/your-org/fitness-backend/internal/infrastructure/messaging/kafka"
	"github.com/your-org/fitness-backend/internal/interfaces/http/handlers"
	"github.com/your-org/fitness-backend/internal/pkg/email"
	"github.com/your-org/fitness-backend/internal/pkg/logger"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging, cfg.App.Name)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"db_driver":   cfg.Database.Driver,
	}).Info("Starting application")

	var (
		storage app.Storage
		collab  app.Collaborators
	)

	switch cfg.Database.Driver {
	case "memory":
		store := inmemory.NewStore()
		if cfg.Database.SeedData {
			if err := store.Seed(cfg.Security.BcryptCost); err != nil {
				log.WithError(err).Fatal("Failed to seed in-memory store")
			}
		}
		storage = app.Storage{
			Users:   store.Users(),
			Catalog: store.Catalog(),
			Carts:   store.Carts(),
			Orders:  store.Orders(),
			Tx:      store,
		}
		log.Warn("Using the in-memory store, data is lost on restart")

	default:
		db, err := postgres.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		migration := postgres.NewMigration(db.GetDB(), cfg.Security.BcryptCost, log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}
		if cfg.Database.SeedData {
			if err := migration.SeedInitialData(); err != nil {
				log.WithError(err).Warn("Data seeding failed")
			}
		}
		if cfg.IsDevelopment() {
			if err := migration.GetTableInfo(); err != nil {
				log.WithError(err).Warn("Failed to read table info")
			}
		}

		storage = app.Storage{
			Users:   user.NewRepository(db.GetDB()),
			Catalog: product.NewCatalog(db.GetDB()),
			Carts:   cart.NewRepository(db.GetDB()),
			Orders:  order.NewRepository(db.GetDB()),
			Tx:      txn.NewGormTransactor(db.GetDB()),
		}
		collab.Health = append(collab.Health, handlers.HealthCheck{Name: "database", Check: db.Health})
	}

	if cfg.Redis.Enabled {
		redisClient, err := redisdb.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()

		var rdb redis.Cmdable = redisClient.GetClient()
		collab.RateLimiter = rdb
		collab.Locker = redisdb.NewLocker(rdb, log)
		collab.Health = append(collab.Health, handlers.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	var publisher *kafka.Publisher
	if len(cfg.External.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.External.Kafka.Brokers, cfg.External.Kafka.OrderTopic, log)
		collab.Events = publisher
	}

	emailService, err := email.NewEmailService(cfg.External.Email, cfg.App.Name, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure email")
	}
	collab.Notifier = emailService
	collab.Payments = payment.NewMockProcessor(0, log)

	a := app.New(cfg, storage, collab, log)

	go func() {
		if err := a.Server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	// let in-flight confirmations and order events finish
	a.Dispatcher.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close order event publisher")
		}
	}

	log.Info("Server shutdown completed")
}
