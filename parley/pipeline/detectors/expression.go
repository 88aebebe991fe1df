package detectors

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

const (
	hesitationConfidence     = 0.70
	lackAuthorityConfidence  = 0.75
	mockedQuestionConfidence = 0.80
	terminologyConfidence    = 0.60

	// hesitationMinHits is how many distinct filler phrases a turn needs
	// before it counts as hesitation rather than ordinary speech.
	hesitationMinHits = 2

	// terminologyMinHits is the jargon-hit count that makes a reply to a
	// female-tagged turn a bombardment.
	terminologyMinHits = 2
)

// ExpressionDetector finds signs that a female-tagged speaker is struggling
// to hold the floor: hesitation, self-undermining hedges, mocked questions,
// and jargon bombardment aimed at her.
type ExpressionDetector struct {
	logger      zerolog.Logger
	hesitation  *Lexicon
	hedging     *Lexicon
	mocking     *Lexicon
	terminology *Lexicon
}

// NewExpressionDetector builds the detector with its phrase lexicons.
func NewExpressionDetector(logger zerolog.Logger) *ExpressionDetector {
	return &ExpressionDetector{
		logger: logger.With().Str("detector", string(ports.CategoryExpressionDifficulty)).Logger(),
		hesitation: NewLexicon(
			"um",
			"uh",
			"er...",
			"i mean",
			"how do i say this",
			"how do i put this",
			"sort of",
			"kind of",
			"well...",
		),
		hedging: NewLexicon(
			"i'm not an expert but",
			"this might be wrong but",
			"i don't really understand this but",
			"maybe it's just me",
			"i could be wrong",
			"sorry if this is a dumb question",
		),
		mocking: NewLexicon(
			"you don't even know that",
			"that's such a basic question",
			"just google it",
			"everyone knows that",
			"do you even watch",
		),
		terminology: NewLexicon(
			"expected goals",
			"xg",
			"pressing intensity",
			"spin rate",
			"counter-loop",
			"third-ball attack",
			"block efficiency",
			"serve receive",
		),
	}
}

// Name returns the detector's registry id.
func (d *ExpressionDetector) Name() string {
	return string(ports.CategoryExpressionDifficulty)
}

// Detect evaluates msg against the preceding turns.
func (d *ExpressionDetector) Detect(ctx context.Context, msg conversation.Message, prior []conversation.Message) ([]ports.TriggerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []ports.TriggerEvent

	if msg.Gender == conversation.GenderFemale {
		if d.hesitation.Count(msg.Text) >= hesitationMinHits {
			_, span, _ := d.hesitation.Match(msg.Text)
			events = append(events, newEvent(msg,
				ports.CategoryExpressionDifficulty, ports.PatternHesitation,
				hesitationConfidence, 3, span))
		}
		if _, span, ok := d.hedging.Match(msg.Text); ok {
			events = append(events, newEvent(msg,
				ports.CategoryExpressionDifficulty, ports.PatternLackAuthority,
				lackAuthorityConfidence, 4, span))
		}
	}

	if phrase, span, ok := d.mocking.Match(msg.Text); ok {
		if fem, found := lastFemaleTurn(prior); found && fem.IsQuestion() && fem.Author != msg.Author {
			d.logger.Debug().Str("phrase", phrase).Msg("mocking reply to a female question")
			events = append(events, newEvent(msg,
				ports.CategoryExpressionDifficulty, ports.PatternMockedQuestion,
				mockedQuestionConfidence, 4, span))
		}
	}

	if d.terminology.Count(msg.Text) >= terminologyMinHits {
		if prev, ok := lastTurn(prior); ok &&
			prev.Gender == conversation.GenderFemale && prev.Author != msg.Author {
			_, span, _ := d.terminology.Match(msg.Text)
			events = append(events, newEvent(msg,
				ports.CategoryExpressionDifficulty, ports.PatternTerminologyBombardment,
				terminologyConfidence, 3, span))
		}
	}

	return events, nil
}

var _ ports.Detector = (*ExpressionDetector)(nil)
