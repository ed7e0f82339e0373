package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billkit/backend/internal/infrastructure/config"
)

// AccountLocker serializes invoice generation per account
type AccountLocker interface {
	Lock(ctx context.Context, accountID uuid.UUID) (func(), error)
}

// AccountLockFactory creates account locks based on configuration
type AccountLockFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AccountLockFactoryOption is a functional option for configuring the factory
type AccountLockFactoryOption func(*AccountLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AccountLockFactoryOption {
	return func(f *AccountLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-process
// lock when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) AccountLockFactoryOption {
	return func(f *AccountLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAccountLockFactory creates a new factory
func NewAccountLockFactory(cfg config.RedisConfig, ttl time.Duration, opts ...AccountLockFactoryOption) *AccountLockFactory {
	f := &AccountLockFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-backed account lock
func (f *AccountLockFactory) CreateRedisLock() (AccountLocker, error) {
	lock, err := NewRedisAccountLock(f.redisConfig, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis account lock: %w", err)
	}
	return lock, nil
}

// CreateInMemoryLock creates an in-process account lock.
// WARNING: In-process locks do not share state across process instances,
// which can lead to double billing in distributed deployments.
func (f *AccountLockFactory) CreateInMemoryLock() AccountLocker {
	return NewInMemoryAccountLock()
}

// CreateLock creates an account lock based on whether Redis is
// available. It tries Redis first and falls back to the in-process lock
// when Redis is not available and fallback is allowed.
func (f *AccountLockFactory) CreateLock() (AccountLocker, error) {
	if f.redisConfig.Enabled {
		lock, err := f.CreateRedisLock()
		if err == nil {
			f.logger.Info("using Redis account lock")
			return lock, nil
		}

		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for account locking but unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to in-process account lock. "+
			"This may cause double billing in distributed deployments.",
			zap.Error(err),
		)
	}
	return f.CreateInMemoryLock(), nil
}
