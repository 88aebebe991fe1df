package pipelineports

import "context"

// CooldownGate enforces a minimum interval between delivered interventions
// per key (conversation, optionally conversation+author).
type CooldownGate interface {
	// TryStamp reports whether the cooldown window for key has elapsed
	// and, if so, atomically records now as the last intervention time.
	// The check and the stamp are a single operation: of two concurrent
	// callers at the window boundary exactly one succeeds.
	TryStamp(ctx context.Context, key string) bool

	// Reset clears the recorded stamp for key, for conversation teardown.
	Reset(key string)
}
