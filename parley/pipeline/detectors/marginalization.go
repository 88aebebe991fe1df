package detectors

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// Confidence and urgency per pattern. The values are part of the decision
// contract: the strategy mapper keys on the urgency levels detectors emit.
const (
	maleDominanceConfidence     = 0.80
	femaleIgnoredConfidence     = 0.90
	femaleInterruptedConfidence = 0.95
	creditStolenConfidence      = 0.85
	derogatedConfidence         = 0.80
)

// dominanceRun is the number of consecutive male-tagged turns (including
// the evaluated one) that counts as dominance.
const dominanceRun = 3

// StructuralDetector finds structural-marginalization patterns: silencing,
// ignoring, dominance runs, credit appropriation, and topic-deflecting
// put-downs aimed at a female-tagged speaker.
type StructuralDetector struct {
	logger         zerolog.Logger
	silencing      *Lexicon
	acknowledgment *Lexicon
	crediting      *Lexicon
	deflecting     *Lexicon
}

// NewStructuralDetector builds the detector with its phrase lexicons.
func NewStructuralDetector(logger zerolog.Logger) *StructuralDetector {
	return &StructuralDetector{
		logger: logger.With().Str("detector", string(ports.CategoryStructuralMarginalization)).Logger(),
		silencing: NewLexicon(
			"wait",
			"hold on",
			"stop",
			"you don't understand",
			"let me finish first",
			"not now",
			"be quiet",
			"we're talking",
		),
		acknowledgment: NewLexicon(
			"yes",
			"right",
			"agree",
			"correct",
			"indeed",
			"good point",
			"she said",
			"you said",
			"that's true",
			"exactly",
		),
		crediting: NewLexicon(
			"that's what i was about to say",
			"i was just going to say that",
			"as i said before",
			"like i already said",
			"my point exactly, which i made",
		),
		deflecting: NewLexicon(
			"back to the real topic",
			"anyway, as i was saying",
			"is it because he's handsome",
			"moving on",
			"whatever, so",
		),
	}
}

// Name returns the detector's registry id.
func (d *StructuralDetector) Name() string {
	return string(ports.CategoryStructuralMarginalization)
}

// Detect evaluates msg against the preceding turns.
func (d *StructuralDetector) Detect(ctx context.Context, msg conversation.Message, prior []conversation.Message) ([]ports.TriggerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []ports.TriggerEvent

	prev, hasPrev := lastTurn(prior)
	prevIsOtherFemale := hasPrev &&
		prev.Gender == conversation.GenderFemale &&
		prev.Author != msg.Author

	if prevIsOtherFemale {
		if phrase, span, ok := d.silencing.Match(msg.Text); ok {
			d.logger.Debug().Str("phrase", phrase).Msg("silencing phrase after a female turn")
			events = append(events, newEvent(msg,
				ports.CategoryStructuralMarginalization, ports.PatternFemaleInterrupted,
				femaleInterruptedConfidence, 5, span))
		} else if len(prev.Text) >= 10 && d.acknowledgment.Count(msg.Text) == 0 {
			events = append(events, newEvent(msg,
				ports.CategoryStructuralMarginalization, ports.PatternFemaleIgnored,
				femaleIgnoredConfidence, 5, ports.Span{}))
		}

		if _, span, ok := d.deflecting.Match(msg.Text); ok {
			events = append(events, newEvent(msg,
				ports.CategoryStructuralMarginalization, ports.PatternDerogated,
				derogatedConfidence, 4, span))
		}
	}

	if d.isDominanceRun(msg, prior) {
		events = append(events, newEvent(msg,
			ports.CategoryStructuralMarginalization, ports.PatternMaleDominance,
			maleDominanceConfidence, 4, ports.Span{}))
	}

	if _, span, ok := d.crediting.Match(msg.Text); ok {
		if fem, found := lastFemaleTurn(prior); found && fem.Author != msg.Author {
			events = append(events, newEvent(msg,
				ports.CategoryStructuralMarginalization, ports.PatternCreditStolen,
				creditStolenConfidence, 4, span))
		}
	}

	return events, nil
}

// isDominanceRun reports whether msg closes a run of dominanceRun
// consecutive male-tagged turns with no female turn inside it.
func (d *StructuralDetector) isDominanceRun(msg conversation.Message, prior []conversation.Message) bool {
	if msg.Gender != conversation.GenderMale || len(prior) < dominanceRun-1 {
		return false
	}
	for i := 0; i < dominanceRun-1; i++ {
		if prior[len(prior)-1-i].Gender != conversation.GenderMale {
			return false
		}
	}
	return true
}

var _ ports.Detector = (*StructuralDetector)(nil)
