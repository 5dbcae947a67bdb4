package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried command is executed once.
type IdempotencyStore interface {
	// Claim records key with a TTL. It returns false if the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key, allowing the command to be retried after a failure
	// that left no side effects.
	Release(ctx context.Context, key string) error

	Close() error
}

// DefaultIdempotencyTTL bounds how long a document generation key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour
