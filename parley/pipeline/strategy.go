// Package pipeline wires detectors, aggregator, cooldown gate, strategy
// mapper, and generators into the evaluator behind a single Evaluate call.
package pipeline

import (
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// strategyTable maps each pattern to its strategy per urgency level, index
// 0 holding urgency 1. The table is total over the known patterns.
var strategyTable = map[ports.Pattern][5]ports.Strategy{
	// urgency:                       1                             2                             3                            4                             5
	ports.PatternFemaleInterrupted: {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompeting, ports.StrategyCompeting},
	ports.PatternGenderStereotype:  {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompeting, ports.StrategyCompeting},
	ports.PatternExpressionMocked:  {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompeting, ports.StrategyCompeting},
	ports.PatternMockedQuestion:    {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompeting, ports.StrategyCompeting},

	ports.PatternMaleDominance: {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCollaborating, ports.StrategyCompeting},

	ports.PatternFemaleIgnored: {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompromising},
	ports.PatternCreditStolen:  {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompromising},
	ports.PatternDerogated:     {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompromising},

	ports.PatternHesitation:             {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyAccommodating, ports.StrategyAccommodating},
	ports.PatternLackAuthority:          {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyAccommodating, ports.StrategyAccommodating},
	ports.PatternTerminologyBombardment: {ports.StrategyAccommodating, ports.StrategyCollaborating, ports.StrategyCollaborating, ports.StrategyAccommodating, ports.StrategyAccommodating},

	ports.PatternSilenceMocked: {ports.StrategyAvoiding, ports.StrategyCollaborating, ports.StrategyCompromising, ports.StrategyCompeting, ports.StrategyCompeting},
}

// MapStrategy selects the response strategy for an event set. It is a pure
// function of the events: the dominant event is chosen by category priority,
// then confidence, then earliest evidence offset, then pattern name, so the
// result does not depend on detector completion order. An empty set maps to
// StrategyNone.
func MapStrategy(events []ports.TriggerEvent) ports.Strategy {
	if len(events) == 0 {
		return ports.StrategyNone
	}

	dominant := events[0]
	for _, e := range events[1:] {
		if moreDominant(e, dominant) {
			dominant = e
		}
	}

	urgency := clampUrgency(dominant.Urgency)
	if row, ok := strategyTable[dominant.Pattern]; ok {
		return row[urgency-1]
	}
	return ports.StrategyCollaborating
}

func moreDominant(a, b ports.TriggerEvent) bool {
	if p, q := a.Category.Priority(), b.Category.Priority(); p != q {
		return p > q
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Evidence.Start != b.Evidence.Start {
		return a.Evidence.Start < b.Evidence.Start
	}
	return a.Pattern < b.Pattern
}

func clampUrgency(urgency int) int {
	if urgency < 1 {
		return 1
	}
	if urgency > 5 {
		return 5
	}
	return urgency
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
