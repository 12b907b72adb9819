package lock

import (
	"context"
	"sync"
	"time"

	"github.com/halverson/notevault/internal/repository"
)

// MemoryLock implements repository.DistributedLock with process-local state.
// Only suitable for single-node deployments.
type MemoryLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLock creates a new in-memory lock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{
		locks: make(map[string]time.Time),
	}
}

// Acquire attempts to acquire the lock.
func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[key]; held && time.Now().Before(expiry) {
		return false, nil
	}

	l.locks[key] = time.Now().Add(ttl)
	return true, nil
}

// Release releases the lock.
func (l *MemoryLock) Release(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, held := l.locks[key]
	if !held {
		return false, nil
	}

	delete(l.locks, key)
	return time.Now().Before(expiry), nil
}

// Ensure MemoryLock implements repository.DistributedLock.
var _ repository.DistributedLock = (*MemoryLock)(nil)
