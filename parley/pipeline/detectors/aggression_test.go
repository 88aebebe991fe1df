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

func TestAggressionGenderStereotype(t *testing.T) {
	d := NewAggressionDetector(zerolog.Nop())

	events, err := d.Detect(context.Background(),
		msg("ben", conversation.GenderMale, "you only watch for the players' looks anyway"), nil)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternGenderStereotype)
	require.True(t, ok)
	assert.Equal(t, ports.CategoryPotentialAggression, e.Category)
	assert.InDelta(t, 0.90, e.Confidence, 1e-9)
	assert.Equal(t, 5, e.Urgency)
}

func TestAggressionExpressionMockedNeedsTarget(t *testing.T) {
	d := NewAggressionDetector(zerolog.Nop())

	// No female turn in the window: nothing to mock.
	events, err := d.Detect(context.Background(),
		msg("ben", conversation.GenderMale, "here comes the feminist lecture"), nil)
	require.NoError(t, err)
	_, ok := findPattern(events, ports.PatternExpressionMocked)
	assert.False(t, ok)

	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "commentary keeps ignoring the women's doubles"),
	}
	events, err = d.Detect(context.Background(),
		msg("ben", conversation.GenderMale, "here comes the feminist lecture"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternExpressionMocked)
	require.True(t, ok)
	assert.InDelta(t, 0.80, e.Confidence, 1e-9)
	assert.Equal(t, 4, e.Urgency)
}

func TestAggressionSilenceMocked(t *testing.T) {
	d := NewAggressionDetector(zerolog.Nop())
	prior := []conversation.Message{
		msg("ana", conversation.GenderFemale, "I still think the second set was thrown away"),
	}

	events, err := d.Detect(context.Background(),
		msg("ben", conversation.GenderMale, "why are you so quiet now, too hard for you?"), prior)
	require.NoError(t, err)

	e, ok := findPattern(events, ports.PatternSilenceMocked)
	require.True(t, ok)
	assert.InDelta(t, 0.70, e.Confidence, 1e-9)
	assert.Equal(t, 3, e.Urgency)
}

func TestAggressionCleanMessage(t *testing.T) {
	d := NewAggressionDetector(zerolog.Nop())

	events, err := d.Detect(context.Background(),
		msg("ben", conversation.GenderMale, "great rally in the third set"), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}
