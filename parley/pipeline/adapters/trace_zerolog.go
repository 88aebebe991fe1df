package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

type spanLoggerKey struct{}

// ZerologTracer records spans and events as structured log lines.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a tracer writing through logger.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger}
}

// StartSpan opens a span and stores its logger in the returned context so
// Event calls inside the span inherit the span name.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	spanLogger := t.logger.With().Str("span", name).Logger()
	ctx = context.WithValue(ctx, spanLoggerKey{}, spanLogger)

	start := time.Now()
	spanLogger.Debug().Msg("span start")

	return ctx, func() {
		spanLogger.Debug().Dur("duration", time.Since(start)).Msg("span end")
	}
}

// Event records a point event on the current span, or on the base logger
// when no span is open.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	logger := t.logger
	if spanLogger, ok := ctx.Value(spanLoggerKey{}).(zerolog.Logger); ok {
		logger = spanLogger
	}

	evt := logger.Debug()
	for k, v := range attrs {
		evt = evt.Interface(k, v)
	}
	evt.Str("event", name).Msg("trace event")
}

var _ ports.Tracer = (*ZerologTracer)(nil)
