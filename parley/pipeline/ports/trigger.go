// Package pipelineports defines the pipeline's port interfaces and the value
// types shared across detectors, aggregator, gate, mapper, and generators.
package pipelineports

import "time"

// Category classifies a trigger event into one of the three detector
// families. Category ids double as detector names in configuration.
type Category string

const (
	CategoryStructuralMarginalization Category = "structural_marginalization"
	CategoryExpressionDifficulty      Category = "expression_difficulty"
	CategoryPotentialAggression       Category = "potential_aggression"
)

// Priority orders categories for dominant-event selection. Higher wins.
func (c Category) Priority() int {
	switch c {
	case CategoryPotentialAggression:
		return 3
	case CategoryStructuralMarginalization:
		return 2
	case CategoryExpressionDifficulty:
		return 1
	default:
		return 0
	}
}

// Pattern is the subtype of a trigger event within its category.
type Pattern string

const (
	PatternMaleDominance     Pattern = "male_dominance"
	PatternFemaleIgnored     Pattern = "female_ignored"
	PatternFemaleInterrupted Pattern = "female_interrupted"
	PatternCreditStolen      Pattern = "credit_stolen"
	PatternDerogated         Pattern = "derogated"

	PatternHesitation             Pattern = "hesitation"
	PatternLackAuthority          Pattern = "lack_authority"
	PatternMockedQuestion         Pattern = "mocked_question"
	PatternTerminologyBombardment Pattern = "terminology_bombardment"

	PatternGenderStereotype Pattern = "gender_stereotype"
	PatternExpressionMocked Pattern = "expression_mocked"
	PatternSilenceMocked    Pattern = "silence_mocked"
)

// Span marks the byte range of the evidence inside the evaluated message
// text. A zero-length span means the evidence is contextual (history-shaped
// rules such as consecutive-speaker runs).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TriggerEvent is one detector finding about the evaluated message.
// Confidence is in [0,1] and Urgency in 1..5; the aggregator clamps
// out-of-range values rather than dropping the event.
type TriggerEvent struct {
	Category   Category  `json:"category"`
	Pattern    Pattern   `json:"pattern"`
	Confidence float64   `json:"confidence"`
	Urgency    int       `json:"urgency"`
	Evidence   Span      `json:"evidence"`
	Detector   string    `json:"detector"`
	ObservedAt time.Time `json:"observed_at"`
}
