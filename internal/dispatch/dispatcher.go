package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/queue"
)

// Dispatcher hands a due-set to an execution target. The scheduler
// picks an implementation per account and depends only on this
// interface.
type Dispatcher interface {
	Dispatch(ctx context.Context, domains []*core.Domain) error
}

// Queue is the transport dispatchers publish to. Satisfied by
// queue.RedisQueue.
type Queue interface {
	Push(ctx context.Context, job *queue.Job) error
	PushOffloadBatch(ctx context.Context, batch *queue.OffloadBatch) error
}

// LocalDispatcher queues one check job per domain for the in-process
// worker pool.
type LocalDispatcher struct {
	queue  Queue
	logger *zap.Logger
}

func NewLocalDispatcher(q Queue, logger *zap.Logger) *LocalDispatcher {
	return &LocalDispatcher{queue: q, logger: logger}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, domains []*core.Domain) error {
	var errs []error
	for _, domain := range domains {
		job := &queue.Job{
			ID:        uuid.New().String(),
			DomainID:  domain.ID,
			AccountID: domain.AccountID,
			Domain:    domain.Name,
			CreatedAt: time.Now().UTC(),
		}
		if err := d.queue.Push(ctx, job); err != nil {
			// The domain stays pending and is re-selected once its
			// interval elapses again.
			d.logger.Warn("failed to queue check job",
				zap.String("domain", domain.Name),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OffloadDispatcher ships due domains to the remote worker fleet in
// bounded sub-batches. Each sub-batch is independently retryable by the
// fleet's queue semantics.
type OffloadDispatcher struct {
	queue     Queue
	batchSize int
	logger    *zap.Logger
}

func NewOffloadDispatcher(q Queue, batchSize int, logger *zap.Logger) *OffloadDispatcher {
	if batchSize < 1 {
		batchSize = 100
	}
	return &OffloadDispatcher{queue: q, batchSize: batchSize, logger: logger}
}

func (d *OffloadDispatcher) Dispatch(ctx context.Context, domains []*core.Domain) error {
	var errs []error
	for start := 0; start < len(domains); start += d.batchSize {
		end := start + d.batchSize
		if end > len(domains) {
			end = len(domains)
		}

		batch := &queue.OffloadBatch{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC(),
		}
		for _, domain := range domains[start:end] {
			batch.Domains = append(batch.Domains, queue.Entry{
				ID:        domain.ID,
				Domain:    domain.Name,
				Campaign:  domain.Campaign,
				AccountID: domain.AccountID,
			})
		}

		if err := d.queue.PushOffloadBatch(ctx, batch); err != nil {
			d.logger.Warn("failed to push offload batch",
				zap.Int("size", len(batch.Domains)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
