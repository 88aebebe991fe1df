package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// responseSchema constrains what the delegate may answer: a single JSON
// object with a non-empty text field.
const responseSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1}
	}
}`

// promptTurns is how many trailing turns of the snapshot the delegate sees.
const promptTurns = 4

// strategyPreambles frame the delegate as a moderator with a fixed TKI
// conflict style. One per strategy.
var strategyPreambles = map[ports.Strategy]string{
	ports.StrategyCollaborating: "You are a neutral moderator in a group chat. Your conflict style is Collaborating: integrate the viewpoints on the table and push the group toward a shared understanding, making sure the marginalized speaker's point is part of it.",
	ports.StrategyAccommodating: "You are a neutral moderator in a group chat. Your conflict style is Accommodating: protect the relationships in the room, reassure the speaker who was dismissed, and lower the temperature without assigning blame.",
	ports.StrategyCompeting:     "You are a neutral moderator in a group chat. Your conflict style is Competing: firmly defend the marginalized speaker's equal right to be heard, name the unfair behavior directly, and do not soften the point.",
	ports.StrategyCompromising:  "You are a neutral moderator in a group chat. Your conflict style is Compromising: propose a concrete fair-discussion mechanism, such as taking turns, that gives every speaker the same floor time.",
	ports.StrategyAvoiding:      "You are a neutral moderator in a group chat. Your conflict style is Avoiding: defuse the moment by steering the conversation to safer ground without escalating the conflict.",
}

// DelegateEngine asks an external model for the intervention line and falls
// back to a deterministic engine whenever the delegate times out, errors,
// or answers with an invalid payload.
type DelegateEngine struct {
	provider ports.DelegateProvider
	fallback ports.Engine
	schema   *gojsonschema.Schema
	logger   zerolog.Logger
}

// NewDelegateEngine wires a provider with its fallback engine.
func NewDelegateEngine(provider ports.DelegateProvider, fallback ports.Engine, logger zerolog.Logger) (*DelegateEngine, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &DelegateEngine{
		provider: provider,
		fallback: fallback,
		schema:   schema,
		logger:   logger.With().Str("component", "delegate_engine").Logger(),
	}, nil
}

// Generate asks the delegate and validates its answer; any failure falls
// back to the deterministic engine so the result is never empty.
func (e *DelegateEngine) Generate(ctx context.Context, strategy ports.Strategy, events []ports.TriggerEvent, msg conversation.Message, prior []conversation.Message) (string, error) {
	raw, err := e.provider.Complete(ctx, e.buildPrompt(strategy, events, msg, prior))
	if err != nil {
		e.logger.Warn().Err(err).Str("strategy", string(strategy)).Msg("delegate failed, using template fallback")
		return e.fallback.Generate(ctx, strategy, events, msg, prior)
	}

	text, err := e.parseResponse(raw)
	if err != nil {
		e.logger.Warn().Err(err).Msg("delegate payload rejected, using template fallback")
		return e.fallback.Generate(ctx, strategy, events, msg, prior)
	}
	return text, nil
}

func (e *DelegateEngine) buildPrompt(strategy ports.Strategy, events []ports.TriggerEvent, msg conversation.Message, prior []conversation.Message) string {
	var sb strings.Builder

	preamble, ok := strategyPreambles[strategy]
	if !ok {
		preamble = strategyPreambles[ports.StrategyCollaborating]
	}
	sb.WriteString(preamble)
	sb.WriteString("\n\nWhat was detected:\n")
	for _, ev := range events {
		fmt.Fprintf(&sb, "- %s / %s (urgency %d, confidence %.2f)\n",
			ev.Category, ev.Pattern, ev.Urgency, ev.Confidence)
	}

	sb.WriteString("\nRecent conversation:\n")
	turns := append(append([]conversation.Message{}, prior...), msg)
	start := len(turns) - promptTurns
	if start < 0 {
		start = 0
	}
	for _, turn := range turns[start:] {
		fmt.Fprintf(&sb, "%s (%s): %s\n", turn.Author, turn.Gender, turn.Text)
	}

	sb.WriteString("\nWrite one short chat message that intervenes in your conflict style. Respond with exactly one JSON object: {\"text\": \"your message\"}.")
	return sb.String()
}

func (e *DelegateEngine) parseResponse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	// Models routinely wrap JSON in code fences; unwrap before validating.
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}

	result, err := e.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return "", fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return "", fmt.Errorf("payload failed schema validation: %s", strings.Join(problems, "; "))
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("failed to decode payload: %w", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", fmt.Errorf("payload text is empty")
	}
	return text, nil
}

var _ ports.Engine = (*DelegateEngine)(nil)
