package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/checker"
	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/dispatch"
	"github.com/domainwatch/domainwatch/internal/metrics"
	"github.com/domainwatch/domainwatch/internal/plan"
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
	policy := plan.NewPolicy(repo, logger)

	hostname, _ := os.Hostname()
	holderID := fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8])
	lease := redis.NewLease(cache, cfg.Scheduler.Identity, holderID, cfg.Scheduler.LeaseTTL)

	jobQueue := queue.NewRedisQueue(cache.Client)
	local := dispatch.NewLocalDispatcher(jobQueue, logger)
	offload := dispatch.NewOffloadDispatcher(jobQueue, cfg.Offload.BatchSize, logger)

	enricher := scheduler.NewEnricher(repo, checker.NewResolver(), checker.NewWHOISClient(), cfg.Scheduler.BatchSize, logger)

	sched := scheduler.NewScheduler(repo, policy, lease, local, offload, enricher, collector, cfg.Scheduler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	logger.Info("Scheduler started", zap.String("holder_id", holderID))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	logger.Info("Scheduler stopped")
}
