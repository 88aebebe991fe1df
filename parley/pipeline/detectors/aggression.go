package detectors

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

const (
	stereotypeConfidence       = 0.90
	expressionMockedConfidence = 0.80
	silenceMockedConfidence    = 0.70
)

// AggressionDetector finds openly hostile patterns: gender stereotyping,
// mockery of how a female-tagged speaker expresses herself, and mockery of
// her silence.
type AggressionDetector struct {
	logger     zerolog.Logger
	stereotype *Lexicon
	mockery    *Lexicon
	silence    *Lexicon
}

// NewAggressionDetector builds the detector with its phrase lexicons.
func NewAggressionDetector(logger zerolog.Logger) *AggressionDetector {
	return &AggressionDetector{
		logger: logger.With().Str("detector", string(ports.CategoryPotentialAggression)).Logger(),
		stereotype: NewLexicon(
			"you only watch for the players' looks",
			"girls don't get this game",
			"women shouldn't butt into men's topics",
			"you're a girl, what would you know",
			"typical woman",
			"go back to your shopping",
		),
		mockery: NewLexicon(
			"here comes the feminist lecture",
			"that's adorable",
			"did you read that on a fan blog",
			"big words for you",
			"calm down, sweetheart",
		),
		silence: NewLexicon(
			"why are you so quiet",
			"cat got your tongue",
			"too hard for you",
			"nothing to say now",
		),
	}
}

// Name returns the detector's registry id.
func (d *AggressionDetector) Name() string {
	return string(ports.CategoryPotentialAggression)
}

// Detect evaluates msg against the preceding turns. Stereotyping fires on
// the phrase alone; the mockery patterns need a female-tagged turn in the
// window so there is an actual target.
func (d *AggressionDetector) Detect(ctx context.Context, msg conversation.Message, prior []conversation.Message) ([]ports.TriggerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []ports.TriggerEvent

	if phrase, span, ok := d.stereotype.Match(msg.Text); ok {
		d.logger.Debug().Str("phrase", phrase).Msg("gender stereotype")
		events = append(events, newEvent(msg,
			ports.CategoryPotentialAggression, ports.PatternGenderStereotype,
			stereotypeConfidence, 5, span))
	}

	_, targetPresent := lastFemaleTurn(prior)

	if _, span, ok := d.mockery.Match(msg.Text); ok && targetPresent {
		events = append(events, newEvent(msg,
			ports.CategoryPotentialAggression, ports.PatternExpressionMocked,
			expressionMockedConfidence, 4, span))
	}

	if _, span, ok := d.silence.Match(msg.Text); ok && targetPresent {
		events = append(events, newEvent(msg,
			ports.CategoryPotentialAggression, ports.PatternSilenceMocked,
			silenceMockedConfidence, 3, span))
	}

	return events, nil
}

var _ ports.Detector = (*AggressionDetector)(nil)
