package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(config.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, cleanup, err := setup(ctx, cfg)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer cleanup()

	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := server.Listen(cfg.AppPort); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	log.Info("shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

// setup opens the database, connects the optional event broker and builds the
// HTTP application. The returned cleanup closes what setup opened.
func setup(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	log := logger.L()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := database.Migrate(db); err != nil {
		cleanup()
		return nil, nil, err
	}
	if cfg.SeedDemo {
		if err := app.Seed(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			// Orders still work without the broker; events are dropped.
			log.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { mq.Close() })
			publisher = mq
			if err := mq.Consume(ctx, app.OrderEventsSubscription, app.HandleOrderEvent); err != nil {
				log.Warn("failed to start order event consumer", zap.Error(err))
			}
		}
	}

	return app.New(cfg, app.NewServices(cfg, db, publisher)), cleanup, nil
}
