package pipelineports

import "context"

// Tracer records evaluation spans and point events for observability.
type Tracer interface {
	// StartSpan opens a named span and returns a context carrying it plus
	// a function that closes the span.
	StartSpan(ctx context.Context, name string) (context.Context, func())

	// Event records a point event with attributes on the current span.
	Event(ctx context.Context, name string, attrs map[string]any)
}
