package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/domainwatch/domainwatch/internal/apply"
	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/metrics"
	"github.com/domainwatch/domainwatch/internal/queue"
)

// Prober runs one probe. Satisfied by checker.Executor; the same
// classification runs on the offload fleet.
type Prober interface {
	Check(ctx context.Context, hostname string) *core.CheckResult
}

// Applier applies one result. Satisfied by apply.Service.
type Applier interface {
	Apply(ctx context.Context, domainID uuid.UUID, result *core.CheckResult) error
}

// Pool consumes the local check queue with a bounded set of workers
// sharing one outbound rate limit.
type Pool struct {
	queue   *queue.RedisQueue
	prober  Prober
	applier Applier
	limiter *rate.Limiter
	metrics *metrics.Collector
	config  config.WorkerConfig
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewPool(q *queue.RedisQueue, prober Prober, applier Applier, collector *metrics.Collector, workerCfg config.WorkerConfig, checkTimeout time.Duration, logger *zap.Logger) *Pool {
	return &Pool{
		queue:   q,
		prober:  prober,
		applier: applier,
		limiter: rate.NewLimiter(rate.Limit(workerCfg.ChecksPerSec), workerCfg.ChecksBurst),
		metrics: collector,
		config:  workerCfg,
		timeout: checkTimeout,
		logger:  logger,
	}
}

// Start launches the workers and blocks until ctx ends and all workers
// have drained.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("starting worker pool", zap.Int("worker_count", p.config.Count))

	for i := 0; i < p.config.Count; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}

	go p.sampleQueueDepth(ctx)

	p.wg.Wait()
}

func (p *Pool) sampleQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := p.queue.Length(ctx)
			if err != nil {
				continue
			}
			p.metrics.SetQueueDepth(depth)
		}
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	logger := p.logger.With(zap.Int("worker_id", id))
	logger.Info("worker started")

	for {
		if ctx.Err() != nil {
			logger.Info("worker stopped")
			return
		}

		job, err := p.queue.Pop(ctx, p.config.PopTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrTimeout) || ctx.Err() != nil {
				continue
			}
			logger.Error("failed to pop job", zap.Error(err))
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		p.processJob(ctx, logger, job)
	}
}

func (p *Pool) processJob(ctx context.Context, logger *zap.Logger, job *queue.Job) {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	result := p.prober.Check(checkCtx, job.Domain)
	cancel()

	if err := p.applier.Apply(ctx, job.DomainID, result); err != nil {
		if errors.Is(err, apply.ErrDomainNotFound) {
			// Deleted between queuing and execution.
			logger.Debug("domain vanished before result applied",
				zap.String("domain", job.Domain),
			)
			return
		}
		logger.Error("failed to apply check result",
			zap.String("domain", job.Domain),
			zap.Error(err),
		)
		return
	}

	logger.Debug("check completed",
		zap.String("domain", job.Domain),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", time.Since(start)),
	)
}
