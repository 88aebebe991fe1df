package pipelineports

import "time"

// Strategy is a TKI conflict-management response style.
type Strategy string

const (
	StrategyCollaborating Strategy = "collaborating"
	StrategyAccommodating Strategy = "accommodating"
	StrategyCompeting     Strategy = "competing"
	StrategyCompromising  Strategy = "compromising"
	StrategyAvoiding      Strategy = "avoiding"

	// StrategyNone marks a decision that does not intervene.
	StrategyNone Strategy = "none"
)

// DecisionState records whether an intervention was actually delivered or
// held back by the threshold or the cooldown gate.
type DecisionState string

const (
	StateDelivered  DecisionState = "delivered"
	StateSuppressed DecisionState = "suppressed"
)

// Decision is the single outcome of evaluating one message. Text is
// non-empty iff ShouldIntervene is true.
type Decision struct {
	ID              string         `json:"id"`
	ConversationID  string         `json:"conversation_id"`
	MessageID       string         `json:"message_id"`
	ShouldIntervene bool           `json:"should_intervene"`
	Strategy        Strategy       `json:"strategy"`
	Text            string         `json:"text"`
	Events          []TriggerEvent `json:"events,omitempty"`
	State           DecisionState  `json:"state"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
	FromCache       bool           `json:"from_cache"`
}
