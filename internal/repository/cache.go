// Package repository defines data access interfaces for NoteVault.
package repository

import (
	"context"
	"time"
)

// =============================================================================
// Cache Interface (session store backing)
// =============================================================================

// Cache defines the interface for TTL'd key-value storage.
// The session manager stores identity markers through this interface;
// implementations exist for in-memory (single node) and Redis (distributed).
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Expire sets or updates the TTL for a key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// =============================================================================
// Distributed Lock Interface
// =============================================================================

// DistributedLock defines the interface for distributed locking.
// Used to serialize note updates across multiple server instances.
type DistributedLock interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held by another
	// process. The lock automatically expires after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)
}
