package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/flight-search-web/internal/models"
)

const clientKeyPrefix = "client:"

// RedisSetter is the slice of the redis client the registry uses
type RedisSetter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisClientRegistry records minted identities as JSON values keyed by id
type RedisClientRegistry struct {
	client RedisSetter
	ttl    time.Duration
}

// NewRedisClientRegistry creates a registry writing entries with the given TTL
func NewRedisClientRegistry(client RedisSetter, ttl time.Duration) *RedisClientRegistry {
	return &RedisClientRegistry{client: client, ttl: ttl}
}

// NewRedisClient opens and pings a redis connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RecordClient stores the identity unless the id is already present
func (r *RedisClientRegistry) RecordClient(ctx context.Context, identity models.ClientIdentity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode client identity: %w", err)
	}
	if err := r.client.SetNX(ctx, clientKeyPrefix+identity.ClientID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record client identity: %w", err)
	}
	return nil
}
