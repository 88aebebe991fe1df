package pipelineports

import (
	"context"

	"github.com/equalvoice/parley-mediator/parley/conversation"
)

// Engine produces the intervention text for a decision. Implementations
// must return non-empty text on a nil error; the delegate engine satisfies
// this by falling back to templates.
type Engine interface {
	Generate(ctx context.Context, strategy Strategy, events []TriggerEvent, msg conversation.Message, prior []conversation.Message) (string, error)
}

// DelegateProvider is the external text-generation collaborator used by the
// delegate engine. Complete blocks until the provider answers, the context
// is done, or the provider's own timeout fires.
type DelegateProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
