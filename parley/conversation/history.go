package conversation

import "sync"

const (
	// MinWindow and MaxWindow bound the configurable history capacity.
	MinWindow = 8
	MaxWindow = 20

	// DefaultWindow keeps enough turns for every history-shaped rule
	// (consecutive-speaker runs need only the last three).
	DefaultWindow = 12
)

// History keeps the last N turns of each conversation in a fixed-size ring.
// Append evicts the oldest turn once the ring is full. Snapshot returns an
// independent chronological copy, so readers never observe a mutation; a turn
// appended between a snapshot and its use is simply not seen, which is
// acceptable for this pipeline.
type History struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string]*ring
}

type ring struct {
	buf  []Message
	head int
	size int
}

// NewHistory creates a history with the given per-conversation capacity,
// clamped to [MinWindow, MaxWindow].
func NewHistory(capacity int) *History {
	if capacity < MinWindow {
		capacity = MinWindow
	}
	if capacity > MaxWindow {
		capacity = MaxWindow
	}
	return &History{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

// Capacity returns the per-conversation ring size.
func (h *History) Capacity() int { return h.capacity }

// Append records a turn, evicting the oldest one when the ring is full.
// Re-appending the turn already at the tail (a redelivery) is a no-op.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rings[msg.ConversationID]
	if !ok {
		r = &ring{buf: make([]Message, h.capacity)}
		h.rings[msg.ConversationID] = r
	}
	if r.size > 0 && r.buf[(r.head+r.size-1)%h.capacity].ID == msg.ID {
		return
	}
	r.buf[(r.head+r.size)%h.capacity] = msg
	if r.size < h.capacity {
		r.size++
	} else {
		r.head = (r.head + 1) % h.capacity
	}
}

// Snapshot returns the retained turns of a conversation in chronological
// order. The returned slice is a copy owned by the caller.
func (h *History) Snapshot(conversationID string) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rings[conversationID]
	if !ok || r.size == 0 {
		return nil
	}
	out := make([]Message, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%h.capacity]
	}
	return out
}

// Len returns the number of retained turns for a conversation.
func (h *History) Len(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.rings[conversationID]; ok {
		return r.size
	}
	return 0
}

// Drop discards a conversation's retained turns, for teardown.
func (h *History) Drop(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rings, conversationID)
}
