package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

func event(category ports.Category, pattern ports.Pattern, confidence float64, urgency int) ports.TriggerEvent {
	return ports.TriggerEvent{
		Category:   category,
		Pattern:    pattern,
		Confidence: confidence,
		Urgency:    urgency,
	}
}

func TestMapStrategyEmptySet(t *testing.T) {
	assert.Equal(t, ports.StrategyNone, MapStrategy(nil))
}

func TestMapStrategyTableSpotChecks(t *testing.T) {
	cases := []struct {
		pattern  ports.Pattern
		category ports.Category
		urgency  int
		want     ports.Strategy
	}{
		{ports.PatternGenderStereotype, ports.CategoryPotentialAggression, 5, ports.StrategyCompeting},
		{ports.PatternFemaleInterrupted, ports.CategoryStructuralMarginalization, 5, ports.StrategyCompeting},
		{ports.PatternFemaleInterrupted, ports.CategoryStructuralMarginalization, 3, ports.StrategyCompromising},
		{ports.PatternFemaleInterrupted, ports.CategoryStructuralMarginalization, 1, ports.StrategyAccommodating},
		{ports.PatternFemaleIgnored, ports.CategoryStructuralMarginalization, 5, ports.StrategyCompromising},
		{ports.PatternFemaleIgnored, ports.CategoryStructuralMarginalization, 3, ports.StrategyCollaborating},
		{ports.PatternMaleDominance, ports.CategoryStructuralMarginalization, 4, ports.StrategyCollaborating},
		{ports.PatternHesitation, ports.CategoryExpressionDifficulty, 5, ports.StrategyAccommodating},
		{ports.PatternHesitation, ports.CategoryExpressionDifficulty, 3, ports.StrategyCollaborating},
		{ports.PatternSilenceMocked, ports.CategoryPotentialAggression, 1, ports.StrategyAvoiding},
	}

	for _, tc := range cases {
		got := MapStrategy([]ports.TriggerEvent{event(tc.category, tc.pattern, 0.8, tc.urgency)})
		assert.Equal(t, tc.want, got, "%s at urgency %d", tc.pattern, tc.urgency)
	}
}

func TestMapStrategyCategoryPriority(t *testing.T) {
	// Aggression outranks marginalization even at lower confidence.
	events := []ports.TriggerEvent{
		event(ports.CategoryStructuralMarginalization, ports.PatternFemaleInterrupted, 0.95, 5),
		event(ports.CategoryPotentialAggression, ports.PatternSilenceMocked, 0.70, 3),
	}
	assert.Equal(t, ports.StrategyCompromising, MapStrategy(events), "silence_mocked at urgency 3 dominates")
}

func TestMapStrategyOrderIndependent(t *testing.T) {
	a := event(ports.CategoryPotentialAggression, ports.PatternGenderStereotype, 0.90, 5)
	b := event(ports.CategoryStructuralMarginalization, ports.PatternFemaleIgnored, 0.90, 5)
	c := event(ports.CategoryExpressionDifficulty, ports.PatternHesitation, 0.70, 3)

	want := MapStrategy([]ports.TriggerEvent{a, b, c})
	assert.Equal(t, want, MapStrategy([]ports.TriggerEvent{c, b, a}))
	assert.Equal(t, want, MapStrategy([]ports.TriggerEvent{b, a, c}))
	assert.Equal(t, ports.StrategyCompeting, want)
}

func TestMapStrategyConfidenceTieBreak(t *testing.T) {
	// Same category: higher confidence wins regardless of position.
	low := event(ports.CategoryStructuralMarginalization, ports.PatternFemaleIgnored, 0.90, 5)
	high := event(ports.CategoryStructuralMarginalization, ports.PatternFemaleInterrupted, 0.95, 5)

	assert.Equal(t, ports.StrategyCompeting, MapStrategy([]ports.TriggerEvent{low, high}))
	assert.Equal(t, ports.StrategyCompeting, MapStrategy([]ports.TriggerEvent{high, low}))
}

func TestMapStrategyClampsUrgency(t *testing.T) {
	assert.Equal(t, ports.StrategyCompeting,
		MapStrategy([]ports.TriggerEvent{event(ports.CategoryPotentialAggression, ports.PatternGenderStereotype, 0.9, 11)}))
	assert.Equal(t, ports.StrategyAccommodating,
		MapStrategy([]ports.TriggerEvent{event(ports.CategoryPotentialAggression, ports.PatternGenderStereotype, 0.9, -2)}))
}

func TestMapStrategyUnknownPatternDefaultsToCollaborating(t *testing.T) {
	assert.Equal(t, ports.StrategyCollaborating,
		MapStrategy([]ports.TriggerEvent{event(ports.CategoryStructuralMarginalization, "novel_pattern", 0.8, 4)}))
}
