package detectors

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

func msg(author string, gender conversation.Gender, text string) conversation.Message {
	return conversation.NewMessage("conv-1", author, gender, text)
}

func findPattern(events []ports.TriggerEvent, pattern ports.Pattern) (ports.TriggerEvent, bool) {
	for _, e := range events {
		if e.Pattern == pattern {
			return e, true
		}
	}
	return ports.TriggerEvent{}, false
}

func TestStructuralFemaleInterrupted(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "the midfield press is what actually won the game"),
	}

	events, err := d.Detect(context.Background(), msg("ben", conversation.GenderMale, "Wait, you don't understand how this works"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternFemaleInterrupted)
	require.True(t, ok)
	assert.Equal(t, ports.CategoryStructuralMarginalization, e.Category)
	assert.InDelta(t, 0.95, e.Confidence, 1e-9)
	assert.Equal(t, 5, e.Urgency)
	assert.Equal(t, 0, e.Evidence.Start, "evidence starts at the silencing phrase")
}

func TestStructuralFemaleIgnored(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "I think the rotation change explains the second set"),
	}

	events, err := d.Detect(context.Background(), msg("ben", conversation.GenderMale, "anyone see the score from the other court"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternFemaleIgnored)
	require.True(t, ok)
	assert.InDelta(t, 0.90, e.Confidence, 1e-9)
	assert.Equal(t, 5, e.Urgency)
}

func TestStructuralAcknowledgmentSuppressesIgnored(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "I think the rotation change explains the second set"),
	}

	events, err := d.Detect(context.Background(), msg("ben", conversation.GenderMale, "good point, the rotation was the difference"), prior)
	require.NoError(t, err)

	_, ok := findPattern(events, ports.PatternFemaleIgnored)
	assert.False(t, ok)
}

func TestStructuralMaleDominanceRun(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ben", conversation.GenderMale, "the defense collapsed"),
		msg("carl", conversation.GenderMale, "totally, no shape at all"),
	}

	events, err := d.Detect(context.Background(), msg("dan", conversation.GenderMale, "and the keeper was asleep"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternMaleDominance)
	require.True(t, ok)
	assert.InDelta(t, 0.80, e.Confidence, 1e-9)
	assert.Equal(t, 4, e.Urgency)
	assert.Equal(t, ports.Span{}, e.Evidence, "dominance is contextual, no text span")
}

func TestStructuralDominanceBrokenByFemaleTurn(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ben", conversation.GenderMale, "the defense collapsed"),
		msg("ana", conversation.GenderFemale, "the fullbacks were overrun"),
	}

	events, err := d.Detect(context.Background(), msg("dan", conversation.GenderMale, "and the keeper was asleep"), prior)
	require.NoError(t, err)

	_, ok := findPattern(events, ports.PatternMaleDominance)
	assert.False(t, ok)
}

func TestStructuralCreditStolen(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "substituting the striker early was the turning point"),
		msg("ben", conversation.GenderMale, "hmm"),
	}

	events, err := d.Detect(context.Background(), msg("carl", conversation.GenderMale, "that's what I was about to say, the early sub decided it"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternCreditStolen)
	require.True(t, ok)
	assert.InDelta(t, 0.85, e.Confidence, 1e-9)
	assert.Equal(t, 4, e.Urgency)
}

func TestStructuralUnknownGenderStaysSilent(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderUnknown, "I think the rotation change explains the second set"),
	}

	events, err := d.Detect(context.Background(), msg("ben", conversation.GenderUnknown, "anyone see the score"), prior)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStructuralNoPriorTurns(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())

	events, err := d.Detect(context.Background(), msg("ben", conversation.GenderMale, "wait, stop"), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStructuralCanceledContext(t *testing.T) {
	d := NewStructuralDetector(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, msg("ben", conversation.GenderMale, "wait"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
