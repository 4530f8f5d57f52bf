package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/domainwatch/domainwatch/internal/core"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) *Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	return &Client{redis.NewClient(opt)}
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

type cachedStatus struct {
	Status    core.Status `json:"status"`
	CheckedAt time.Time   `json:"checked_at"`
}

// CacheDomainStatus mirrors the freshest applied status for dashboard
// reads. TTL-bounded; the database stays the source of truth.
func (c *Client) CacheDomainStatus(ctx context.Context, domainID uuid.UUID, status core.Status, checkedAt time.Time) error {
	key := fmt.Sprintf("domain:status:%s", domainID)
	return c.SetJSON(ctx, key, cachedStatus{Status: status, CheckedAt: checkedAt}, 5*time.Minute)
}
