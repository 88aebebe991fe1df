package pipelineports

import (
	"context"

	"github.com/equalvoice/parley-mediator/parley/conversation"
)

// DecisionStore persists evaluated messages and their decisions. The
// pipeline treats it as best-effort: write failures are logged and never
// fail an evaluation.
type DecisionStore interface {
	SaveMessage(ctx context.Context, msg conversation.Message) error
	SaveDecision(ctx context.Context, d Decision) error

	// RecentDecisions returns the last k decisions of a conversation in
	// chronological order.
	RecentDecisions(ctx context.Context, conversationID string, k int) ([]Decision, error)
}
