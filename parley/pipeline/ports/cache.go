package pipelineports

import "context"

// Cache memoizes finalized decisions by message fingerprint so identical
// inputs are answered without re-running detectors. Implementations must be
// safe for concurrent use; a read failure is reported as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
