// Package lock provides locking implementations used to serialize
// note mutations across server instances.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/halverson/notevault/internal/repository"
)

// releaseScript deletes the lock key only if it still holds our token.
// This prevents releasing a lock that expired and was re-acquired by
// another process.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLock implements repository.DistributedLock using Redis SET NX.
type RedisLock struct {
	client *goredis.Client
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLock creates a new Redis-backed distributed lock.
func NewRedisLock(client *goredis.Client, prefix string) *RedisLock {
	return &RedisLock{
		client: client,
		prefix: prefix,
		tokens: make(map[string]string),
	}
}

func (l *RedisLock) key(name string) string {
	return l.prefix + name
}

// Acquire attempts to acquire the lock with a unique token.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	return true, nil
}

// Release releases the lock if this instance still holds it.
func (l *RedisLock) Release(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !held {
		return false, nil
	}

	res, err := l.client.Eval(ctx, releaseScript, []string{l.key(key)}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %q: %w", key, err)
	}

	return res == 1, nil
}

// Ensure RedisLock implements repository.DistributedLock.
var _ repository.DistributedLock = (*RedisLock)(nil)
