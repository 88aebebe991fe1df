package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// WindowGate enforces a minimum interval between interventions per key.
// A single mutex covers the check and the stamp, so of two concurrent
// callers at the window boundary exactly one passes.
type WindowGate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewWindowGate creates a gate with the given cooldown window.
func NewWindowGate(window time.Duration) *WindowGate {
	return NewWindowGateWithClock(window, time.Now)
}

// NewWindowGateWithClock creates a gate reading time from now, for tests.
func NewWindowGateWithClock(window time.Duration, now func() time.Time) *WindowGate {
	return &WindowGate{
		window: window,
		last:   make(map[string]time.Time),
		now:    now,
	}
}

// TryStamp reports whether the window for key has elapsed and records the
// current time if it has. A zero or negative window always passes.
func (g *WindowGate) TryStamp(ctx context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[key]; ok && g.window > 0 && now.Sub(last) < g.window {
		return false
	}
	g.last[key] = now
	return true
}

// Reset clears the stamp for key.
func (g *WindowGate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, key)
}

var _ ports.CooldownGate = (*WindowGate)(nil)
