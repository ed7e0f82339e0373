package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemoryAccountLock implements the per-account generation lock with
// in-process semaphores. This is suitable for single-instance
// deployments and testing.
type InMemoryAccountLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]chan struct{}
}

// NewInMemoryAccountLock creates an in-memory account lock
func NewInMemoryAccountLock() *InMemoryAccountLock {
	return &InMemoryAccountLock{
		locks: make(map[uuid.UUID]chan struct{}),
	}
}

// Lock acquires the account lock, blocking until it is acquired or the
// context is done. The returned function releases the lock.
func (l *InMemoryAccountLock) Lock(ctx context.Context, accountID uuid.UUID) (func(), error) {
	sem := l.semaphore(accountID)

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-sem })
		}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for account lock: %w", ctx.Err())
	}
}

func (l *InMemoryAccountLock) semaphore(accountID uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.locks[accountID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[accountID] = sem
	}
	return sem
}
