package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/apply"
	"github.com/domainwatch/domainwatch/internal/checker"
	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/incidents"
	"github.com/domainwatch/domainwatch/internal/metrics"
	"github.com/domainwatch/domainwatch/internal/notify"
	"github.com/domainwatch/domainwatch/internal/queue"
	"github.com/domainwatch/domainwatch/internal/scheduler"
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

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notify.SlackWebhookURL != "" {
		notifier = notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL)
	}

	applier := apply.NewService(repo, tracker, notifier, cache, collector, logger)
	executor := checker.NewExecutor(cfg.Checker, logger)
	jobQueue := queue.NewRedisQueue(cache.Client)

	pool := scheduler.NewPool(jobQueue, executor, applier, collector, cfg.Worker, cfg.Checker.Timeout, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Start(ctx)

	logger.Info("Worker started", zap.Int("worker_count", cfg.Worker.Count))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker exited")
}
