package detectors

import (
	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

func newEvent(msg conversation.Message, category ports.Category, pattern ports.Pattern, confidence float64, urgency int, span ports.Span) ports.TriggerEvent {
	return ports.TriggerEvent{
		Category:   category,
		Pattern:    pattern,
		Confidence: confidence,
		Urgency:    urgency,
		Evidence:   span,
		Detector:   string(category),
		ObservedAt: msg.Timestamp,
	}
}

func lastTurn(prior []conversation.Message) (conversation.Message, bool) {
	if len(prior) == 0 {
		return conversation.Message{}, false
	}
	return prior[len(prior)-1], true
}

func lastFemaleTurn(prior []conversation.Message) (conversation.Message, bool) {
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Gender == conversation.GenderFemale {
			return prior[i], true
		}
	}
	return conversation.Message{}, false
}
