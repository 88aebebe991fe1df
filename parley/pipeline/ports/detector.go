package pipelineports

import (
	"context"

	"github.com/equalvoice/parley-mediator/parley/conversation"
)

// Detector inspects one message against the preceding turns of its
// conversation and reports zero or more trigger events. Detectors must be
// safe for concurrent use, must not mutate msg or prior, and should honor
// ctx cancellation; a late result is discarded by the aggregator.
type Detector interface {
	// Name returns the detector's registry id (its category id).
	Name() string

	// Detect evaluates msg. prior holds the retained turns that came
	// before msg, in chronological order.
	Detect(ctx context.Context, msg conversation.Message, prior []conversation.Message) ([]TriggerEvent, error)
}
