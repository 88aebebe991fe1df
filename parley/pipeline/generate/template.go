// Package generate produces intervention text: a template engine for
// deterministic output and a delegate engine that asks an external model
// and falls back to the templates.
package generate

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// GenericFallback is the line used when no template applies or rendering
// fails. Interventions are never empty.
const GenericFallback = "Let's slow down for a second so everyone gets to finish their thought."

// maxQuoteLen bounds quoted turns inside an intervention.
const maxQuoteLen = 80

// slots are the values a template may interpolate. Missing slots render as
// empty strings; templates guard them with {{with}}.
type slots struct {
	FemaleAuthor string
	FemaleQuote  string
	MaleQuote    string
	Topic        string
}

// templateTexts maps strategy → category → template body. Lookup falls back
// to the strategy's default ("" key) and then to GenericFallback.
var templateTexts = map[ports.Strategy]map[ports.Category]string{
	ports.StrategyCollaborating: {
		ports.CategoryStructuralMarginalization: `{{with .FemaleAuthor}}{{.}} made a point worth coming back to{{else}}There was a point made earlier worth coming back to{{end}}{{with .FemaleQuote}} — "{{.}}"{{end}}. It fits with what was just said; let's dig into both together.`,
		ports.CategoryExpressionDifficulty:      `{{with .FemaleAuthor}}{{.}} was getting at something{{else}}Someone was getting at something{{end}} — let's help finish that thought instead of moving past it.`,
		ports.CategoryPotentialAggression:       `Both takes have something to them. Let's find what they share instead of talking past each other.`,
		"":                                      `Let's pull these views together — there's more agreement here than it sounds.`,
	},
	ports.StrategyAccommodating: {
		ports.CategoryStructuralMarginalization: `{{with .FemaleAuthor}}{{.}} clearly cares about {{with .Topic}}{{.}}{{else}}this{{end}}{{else}}People here clearly care about this{{end}} — everyone shows it differently, and that's fine.`,
		ports.CategoryExpressionDifficulty:      `No rush{{with .FemaleAuthor}}, {{.}}{{end}} — take your time, we're listening.`,
		ports.CategoryPotentialAggression:       `Everyone in this chat has a right to their take; let's keep it friendly.`,
		"":                                      `It's fine to see this differently — no one has to win this one.`,
	},
	ports.StrategyCompeting: {
		ports.CategoryStructuralMarginalization: `Hold on — {{with .FemaleAuthor}}{{.}}{{else}}she{{end}} wasn't finished.{{with .FemaleQuote}} She said "{{.}}" and that deserves a real answer.{{end}} Hear it out before judging.`,
		ports.CategoryExpressionDifficulty:      `{{with .FemaleAuthor}}{{.}}'s{{else}}Her{{end}} view deserves the floor. Let her finish.`,
		ports.CategoryPotentialAggression:       `That's a gender stereotype and it has no place here. Everyone has an equal right to speak about {{with .Topic}}{{.}}{{else}}this{{end}}.`,
		"":                                      `That crossed a line. Everyone here gets the same right to be heard.`,
	},
	ports.StrategyCompromising: {
		ports.CategoryStructuralMarginalization: `How about we take turns on this one? {{with .FemaleAuthor}}{{.}} hasn't finished her point yet.{{else}}Not everyone has had their say yet.{{end}}`,
		ports.CategoryExpressionDifficulty:      `Let's give everyone equal time{{with .FemaleAuthor}} — {{.}}, what were you going to say?{{end}}`,
		ports.CategoryPotentialAggression:       `Ground rule: everyone gets to finish a thought without being cut off. Deal?`,
		"":                                      `Let's split the floor evenly and hear each side once through.`,
	},
	ports.StrategyAvoiding: {
		ports.CategoryStructuralMarginalization: `Ha, let's not go down that road — anyway, what's next on {{with .Topic}}{{.}}{{else}}the schedule{{end}}?`,
		ports.CategoryExpressionDifficulty:      `This one's getting tangled; maybe we circle back to it later?`,
		ports.CategoryPotentialAggression:       `People see it differently, that's normal. Let's switch to something lighter.`,
		"":                                      `Maybe we park this one for now and come back fresh.`,
	},
}

// TemplateEngine renders strategy- and category-specific intervention lines
// from the history snapshot. It never fails: any rendering problem degrades
// to GenericFallback.
type TemplateEngine struct {
	logger    zerolog.Logger
	templates map[ports.Strategy]map[ports.Category]*template.Template
	topic     string
}

// NewTemplateEngine parses the built-in templates. topic is an optional
// label for the conversation's subject, used by templates with a Topic slot.
func NewTemplateEngine(logger zerolog.Logger, topic string) (*TemplateEngine, error) {
	parsed := make(map[ports.Strategy]map[ports.Category]*template.Template, len(templateTexts))
	for strategy, byCategory := range templateTexts {
		parsed[strategy] = make(map[ports.Category]*template.Template, len(byCategory))
		for category, body := range byCategory {
			tmpl, err := template.New(string(strategy) + "/" + string(category)).Parse(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s/%s: %w", strategy, category, err)
			}
			parsed[strategy][category] = tmpl
		}
	}
	return &TemplateEngine{
		logger:    logger.With().Str("component", "template_engine").Logger(),
		templates: parsed,
		topic:     topic,
	}, nil
}

// Generate renders the intervention line for strategy and the dominant
// event's category.
func (e *TemplateEngine) Generate(ctx context.Context, strategy ports.Strategy, events []ports.TriggerEvent, msg conversation.Message, prior []conversation.Message) (string, error) {
	byCategory, ok := e.templates[strategy]
	if !ok {
		return GenericFallback, nil
	}

	tmpl, ok := byCategory[dominantCategory(events)]
	if !ok {
		tmpl = byCategory[""]
	}
	if tmpl == nil {
		return GenericFallback, nil
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, e.extractSlots(msg, prior)); err != nil {
		e.logger.Warn().Err(err).Str("strategy", string(strategy)).Msg("template rendering failed")
		return GenericFallback, nil
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return GenericFallback, nil
	}
	return text, nil
}

// extractSlots pulls quotable material out of the snapshot: the most recent
// female- and male-tagged turns, including the evaluated message itself.
func (e *TemplateEngine) extractSlots(msg conversation.Message, prior []conversation.Message) slots {
	s := slots{Topic: e.topic}

	turns := make([]conversation.Message, 0, len(prior)+1)
	turns = append(turns, prior...)
	turns = append(turns, msg)

	for i := len(turns) - 1; i >= 0; i-- {
		switch turns[i].Gender {
		case conversation.GenderFemale:
			if s.FemaleQuote == "" {
				s.FemaleAuthor = turns[i].Author
				s.FemaleQuote = truncateQuote(turns[i].Text)
			}
		case conversation.GenderMale:
			if s.MaleQuote == "" {
				s.MaleQuote = truncateQuote(turns[i].Text)
			}
		}
	}
	return s
}

func dominantCategory(events []ports.TriggerEvent) ports.Category {
	var best ports.Category
	for _, e := range events {
		if e.Category.Priority() > best.Priority() {
			best = e.Category
		}
	}
	return best
}

func truncateQuote(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxQuoteLen {
		return text
	}
	return string(runes[:maxQuoteLen]) + "…"
}

var _ ports.Engine = (*TemplateEngine)(nil)
