package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that a retried operation
// returns the original result instead of running twice.
type IdempotencyStore interface {
	// Reserve claims the key for ttl. It returns false when the key is
	// already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result reference for a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Result returns the stored result reference; empty when the key is
	// unknown or still in progress.
	Result(ctx context.Context, key string) (string, error)

	// Release drops a reservation so the operation can be retried
	Release(ctx context.Context, key string) error
}
