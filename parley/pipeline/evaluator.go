package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	"github.com/equalvoice/parley-mediator/parley/pipeline/generate"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// Options tune the evaluator's decision policy.
type Options struct {
	// UrgencyThreshold is the minimum merged urgency that triggers an
	// intervention, clamped to 1..5.
	UrgencyThreshold int

	// CooldownPerAuthor keys the cooldown gate by conversation and target
	// author instead of conversation alone.
	CooldownPerAuthor bool

	// DetectorTimeout bounds the detector fan-out; stragglers contribute
	// no events.
	DetectorTimeout time.Duration

	// CacheTTLSeconds is the lifetime of memoized decisions.
	CacheTTLSeconds int
}

// Evaluator runs the decision pipeline: history, detector fan-out, merge,
// threshold and cooldown gating, strategy mapping, and generation.
type Evaluator struct {
	opts      Options
	history   *conversation.History
	detectors []ports.Detector
	cache     ports.Cache
	gate      ports.CooldownGate
	engine    ports.Engine
	store     ports.DecisionStore
	tracer    ports.Tracer
	logger    zerolog.Logger
}

// NewEvaluator wires the pipeline. All collaborators are required; use the
// factory's no-op adapters to disable cache, store, or tracing.
func NewEvaluator(opts Options, history *conversation.History, detectors []ports.Detector,
	cache ports.Cache, gate ports.CooldownGate, engine ports.Engine,
	store ports.DecisionStore, tracer ports.Tracer, logger zerolog.Logger) *Evaluator {

	opts.UrgencyThreshold = clampUrgency(opts.UrgencyThreshold)
	if opts.DetectorTimeout <= 0 {
		opts.DetectorTimeout = 300 * time.Millisecond
	}
	return &Evaluator{
		opts:      opts,
		history:   history,
		detectors: detectors,
		cache:     cache,
		gate:      gate,
		engine:    engine,
		store:     store,
		tracer:    tracer,
		logger:    logger.With().Str("component", "evaluator").Logger(),
	}
}

// History exposes the evaluator's conversation history, for teardown.
func (e *Evaluator) History() *conversation.History { return e.history }

// Evaluate classifies one message and returns the intervention decision.
// Pipeline-internal failures (detector errors, cache trouble, delegate
// trouble, store trouble) never surface as errors; the only error returned
// is the caller's context cancellation.
func (e *Evaluator) Evaluate(ctx context.Context, msg conversation.Message) (ports.Decision, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return e.suppressed(msg, nil), nil
	}
	if err := ctx.Err(); err != nil {
		return ports.Decision{}, err
	}

	prior := e.history.Snapshot(msg.ConversationID)
	// A redelivered message is already the tail; drop it from its own
	// window so the retry shares the original's fingerprint.
	if n := len(prior); n > 0 && prior[n-1].ID == msg.ID {
		prior = prior[:n-1]
	}
	e.history.Append(msg)

	ctx, finish := e.tracer.StartSpan(ctx, "evaluate")
	defer finish()

	fingerprint := Fingerprint(msg, prior)
	if decision, ok := e.cachedDecision(ctx, fingerprint); ok {
		e.tracer.Event(ctx, "cache_hit", map[string]any{"fingerprint": fingerprint})
		return decision, nil
	}

	events := mergeEvents(e.runDetectors(ctx, msg, prior))
	e.tracer.Event(ctx, "detected", map[string]any{"events": len(events)})

	// A canceled evaluation must leave no trace: no stamp, no cache write.
	if err := ctx.Err(); err != nil {
		return ports.Decision{}, err
	}

	decision := e.decide(ctx, msg, prior, events)
	e.memoize(ctx, fingerprint, decision)
	e.persist(ctx, msg, decision)
	return decision, nil
}

// decide applies threshold and cooldown and produces the final decision.
func (e *Evaluator) decide(ctx context.Context, msg conversation.Message, prior []conversation.Message, events []ports.TriggerEvent) ports.Decision {
	urgency := maxUrgency(events)
	if urgency < e.opts.UrgencyThreshold {
		return e.suppressed(msg, events)
	}

	if !e.gate.TryStamp(ctx, e.gateKey(msg, prior)) {
		e.tracer.Event(ctx, "cooldown_suppressed", map[string]any{"urgency": urgency})
		return e.suppressed(msg, events)
	}

	strategy := MapStrategy(events)
	text, err := e.engine.Generate(ctx, strategy, events, msg, prior)
	if err != nil || strings.TrimSpace(text) == "" {
		e.logger.Warn().Err(err).Str("strategy", string(strategy)).Msg("generation failed, using generic line")
		text = generate.GenericFallback
	}

	return ports.Decision{
		ID:              uuid.NewString(),
		ConversationID:  msg.ConversationID,
		MessageID:       msg.ID,
		ShouldIntervene: true,
		Strategy:        strategy,
		Text:            text,
		Events:          events,
		State:           ports.StateDelivered,
		EvaluatedAt:     time.Now().UTC(),
	}
}

func (e *Evaluator) suppressed(msg conversation.Message, events []ports.TriggerEvent) ports.Decision {
	return ports.Decision{
		ID:             uuid.NewString(),
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Strategy:       ports.StrategyNone,
		Events:         events,
		State:          ports.StateSuppressed,
		EvaluatedAt:    time.Now().UTC(),
	}
}

// gateKey derives the cooldown key. With per-author cooldown the key tracks
// the intervention's target: the most recent female-tagged speaker.
func (e *Evaluator) gateKey(msg conversation.Message, prior []conversation.Message) string {
	if !e.opts.CooldownPerAuthor {
		return msg.ConversationID
	}
	target := msg.Author
	if msg.Gender != conversation.GenderFemale {
		for i := len(prior) - 1; i >= 0; i-- {
			if prior[i].Gender == conversation.GenderFemale {
				target = prior[i].Author
				break
			}
		}
	}
	return msg.ConversationID + "\x00" + target
}

// runDetectors fans the enabled detectors out over the snapshot and
// collects their events until DetectorTimeout. A detector that errors,
// panics, or misses the deadline contributes nothing.
func (e *Evaluator) runDetectors(ctx context.Context, msg conversation.Message, prior []conversation.Message) []ports.TriggerEvent {
	if len(e.detectors) == 0 {
		return nil
	}

	dctx, cancel := context.WithTimeout(ctx, e.opts.DetectorTimeout)
	defer cancel()

	results := make(chan []ports.TriggerEvent, len(e.detectors))
	var wg conc.WaitGroup
	for _, d := range e.detectors {
		d := d
		wg.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error().Interface("panic", r).Str("detector", d.Name()).Msg("detector panicked")
					results <- nil
				}
			}()
			events, err := d.Detect(dctx, msg, prior)
			if err != nil {
				if dctx.Err() == nil {
					e.logger.Warn().Err(err).Str("detector", d.Name()).Msg("detector failed")
				}
				results <- nil
				return
			}
			results <- events
		})
	}
	go wg.Wait()

	var all []ports.TriggerEvent
	for collected := 0; collected < len(e.detectors); collected++ {
		select {
		case events := <-results:
			all = append(all, events...)
		case <-dctx.Done():
			e.logger.Warn().Int("collected", collected).Int("expected", len(e.detectors)).
				Msg("detector deadline reached, treating stragglers as empty")
			return all
		}
	}
	return all
}

func (e *Evaluator) cachedDecision(ctx context.Context, fingerprint string) (ports.Decision, bool) {
	data, ok, err := e.cache.Get(ctx, fingerprint)
	if err != nil {
		e.logger.Warn().Err(err).Msg("cache read failed, treating as miss")
		return ports.Decision{}, false
	}
	if !ok {
		return ports.Decision{}, false
	}
	var decision ports.Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		e.logger.Warn().Err(err).Msg("cache entry corrupt, dropping")
		_ = e.cache.Delete(ctx, fingerprint)
		return ports.Decision{}, false
	}
	decision.FromCache = true
	return decision, true
}

func (e *Evaluator) memoize(ctx context.Context, fingerprint string, decision ports.Decision) {
	data, err := json.Marshal(decision)
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to marshal decision for cache")
		return
	}
	if err := e.cache.Set(ctx, fingerprint, data, e.opts.CacheTTLSeconds); err != nil {
		e.logger.Warn().Err(err).Msg("cache write failed")
	}
}

func (e *Evaluator) persist(ctx context.Context, msg conversation.Message, decision ports.Decision) {
	if err := e.store.SaveMessage(ctx, msg); err != nil {
		e.logger.Warn().Err(err).Msg("failed to persist message")
	}
	if err := e.store.SaveDecision(ctx, decision); err != nil {
		e.logger.Warn().Err(err).Msg("failed to persist decision")
	}
}

// mergeEvents clamps out-of-range values and collapses same-category
// duplicates: the surviving event is the category's most dominant one,
// carrying the group's maximum urgency. Output is ordered by category
// priority so the result is independent of detector completion order.
func mergeEvents(events []ports.TriggerEvent) []ports.TriggerEvent {
	if len(events) == 0 {
		return nil
	}

	byCategory := make(map[ports.Category]ports.TriggerEvent, 3)
	for _, event := range events {
		event.Confidence = clampConfidence(event.Confidence)
		event.Urgency = clampUrgency(event.Urgency)

		current, ok := byCategory[event.Category]
		if !ok {
			byCategory[event.Category] = event
			continue
		}
		survivor := current
		if moreDominant(event, current) {
			survivor = event
		}
		if event.Urgency > survivor.Urgency {
			survivor.Urgency = event.Urgency
		}
		if current.Urgency > survivor.Urgency {
			survivor.Urgency = current.Urgency
		}
		byCategory[event.Category] = survivor
	}

	merged := make([]ports.TriggerEvent, 0, len(byCategory))
	for _, event := range byCategory {
		merged = append(merged, event)
	}
	sort.Slice(merged, func(i, j int) bool { return moreDominant(merged[i], merged[j]) })
	return merged
}

func maxUrgency(events []ports.TriggerEvent) int {
	urgency := 0
	for _, e := range events {
		if e.Urgency > urgency {
			urgency = e.Urgency
		}
	}
	return urgency
}
