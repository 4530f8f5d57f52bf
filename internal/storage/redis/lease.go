package redis

import (
	"context"
	"fmt"
	"time"
)

// Lease is a coarse mutual-exclusion lock backed by SET NX PX, keyed by
// a scheduler identity. It keeps concurrent service instances from
// double-queuing the same domains: a tick that cannot acquire the lease
// is skipped, not queued.
type Lease struct {
	client   *Client
	key      string
	holderID string
	ttl      time.Duration
}

func NewLease(client *Client, identity, holderID string, ttl time.Duration) *Lease {
	return &Lease{
		client:   client,
		key:      fmt.Sprintf("lease:%s", identity),
		holderID: holderID,
		ttl:      ttl,
	}
}

// Acquire returns true when this holder owns the lease for the TTL.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.holderID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	return ok, nil
}

// Release drops the lease if this holder still owns it. A lease taken
// over by another holder after TTL expiry is left alone.
func (l *Lease) Release(ctx context.Context) error {
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0`
	return l.client.Eval(ctx, script, []string{l.key}, l.holderID).Err()
}
