package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/api"
	"github.com/domainwatch/domainwatch/internal/apply"
	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/dispatch"
	"github.com/domainwatch/domainwatch/internal/incidents"
	"github.com/domainwatch/domainwatch/internal/metrics"
	"github.com/domainwatch/domainwatch/internal/notify"
	"github.com/domainwatch/domainwatch/internal/storage/postgres"
	"github.com/domainwatch/domainwatch/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	database, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	cache := redis.NewClient(cfg.Redis.URL)
	defer cache.Close()

	repo := postgres.NewRepository(database)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	tracker := incidents.NewTracker(logger)
	notifier := newNotifier(cfg, logger)

	applier := apply.NewService(repo, tracker, notifier, cache, collector, logger)
	offload := dispatch.NewOffloadService(repo, applier, collector, logger)

	server := api.NewServer(cfg, offload, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	if cfg.Notify.SlackWebhookURL != "" {
		return notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL)
	}
	return notify.NewLogNotifier(logger)
}
