package db

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisHealth adapts a redis client to the readiness check contract.
type RedisHealth struct {
	client redis.UniversalClient
}

func NewRedisHealth(client redis.UniversalClient) *RedisHealth {
	return &RedisHealth{client: client}
}

func (h *RedisHealth) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
