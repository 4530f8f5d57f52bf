package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTimeout = errors.New("queue timeout")

// Job is one unit of local check work: probe a single domain.
type Job struct {
	ID        string    `json:"id"`
	DomainID  uuid.UUID `json:"domain_id"`
	AccountID uuid.UUID `json:"account_id"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// OffloadBatch is one sub-batch of due domains handed to the remote
// worker fleet. Sub-batches are independently retryable; the fleet's
// own queue semantics give at-least-once delivery.
type OffloadBatch struct {
	ID        string    `json:"id"`
	Domains   []Entry   `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
}

type Entry struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	Campaign  *string   `json:"campaign,omitempty"`
	AccountID uuid.UUID `json:"account_id"`
}

const (
	checkQueue   = "domain_checks"
	offloadQueue = "domain_checks_offload"
)

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.client.ZAdd(ctx, checkQueue, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next job.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BZPopMin(ctx, timeout, checkQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	member, ok := result.Member.(string)
	if !ok {
		return nil, errors.New("invalid member from queue")
	}

	var job Job
	if err := json.Unmarshal([]byte(member), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, checkQueue).Result()
}

func (q *RedisQueue) PushOffloadBatch(ctx context.Context, batch *OffloadBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal offload batch: %w", err)
	}

	if err := q.client.RPush(ctx, offloadQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push offload batch: %w", err)
	}
	return nil
}
