package infra_redis_votelock

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
)

// Driver marks a (session token, feature) pair as voted with SETNX, so only
// the first vote of a token inside ttl wins across every instance.
type Driver struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func New(
	client *redis.Client,
	key string,
	ttl time.Duration,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (d *Driver) Acquire(ctx context.Context, token string, id uuid.UUID) (bool, error) {
	return d.client.SetNX(d.lockKey(token, id), 1, d.ttl).Result()
}

func (d *Driver) Release(ctx context.Context, token string, id uuid.UUID) error {
	return d.client.Del(d.lockKey(token, id)).Err()
}

func (d *Driver) lockKey(token string, id uuid.UUID) string {
	return d.key + ":" + id.String() + ":" + token
}
