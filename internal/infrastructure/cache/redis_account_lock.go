package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/billkit/backend/internal/infrastructure/config"
)

// releaseScript deletes the lock key only when it still holds our token,
// so an expired lock reacquired by another instance is never released
// by the original holder
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisAccountLock implements the per-account generation lock on Redis.
// This is suitable for distributed deployments where multiple instances
// may generate invoices for the same account.
type RedisAccountLock struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisAccountLock creates a Redis-backed account lock
func NewRedisAccountLock(cfg config.RedisConfig, ttl time.Duration) (*RedisAccountLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAccountLockWithClient(client, "", ttl), nil
}

// NewRedisAccountLockWithClient creates a lock with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisAccountLockWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisAccountLock {
	if keyPrefix == "" {
		keyPrefix = "invoice:account-lock:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAccountLock{
		client:        client,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		retryInterval: 50 * time.Millisecond,
	}
}

// Lock acquires the account lock, blocking until it is acquired or the
// context is done. The returned function releases the lock.
func (l *RedisAccountLock) Lock(ctx context.Context, accountID uuid.UUID) (func(), error) {
	key := l.keyPrefix + accountID.String()
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for account lock: %w", ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort: an expired key releases itself via the TTL.
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}

// Close closes the Redis client
func (l *RedisAccountLock) Close() error {
	return l.client.Close()
}
