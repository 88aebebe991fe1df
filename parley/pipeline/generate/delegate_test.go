package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// stubProvider returns a canned response or error and records the prompt.
type stubProvider struct {
	response string
	err      error
	prompt   string
}

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func newDelegate(t *testing.T, provider ports.DelegateProvider) *DelegateEngine {
	t.Helper()
	fallback, err := NewTemplateEngine(zerolog.Nop(), "")
	require.NoError(t, err)
	engine, err := NewDelegateEngine(provider, fallback, zerolog.Nop())
	require.NoError(t, err)
	return engine
}

func delegateArgs() (ports.Strategy, []ports.TriggerEvent, conversation.Message, []conversation.Message) {
	prior := []conversation.Message{
		conversation.NewMessage("conv-1", "ana", conversation.GenderFemale, "the press decided the game"),
	}
	msg := conversation.NewMessage("conv-1", "ben", conversation.GenderMale, "you're a girl, what would you know")
	return ports.StrategyCompeting, []ports.TriggerEvent{stereotypeEvent()}, msg, prior
}

func TestDelegateUsesValidResponse(t *testing.T) {
	provider := &stubProvider{response: `{"text": "Ana has every right to weigh in here."}`}
	engine := newDelegate(t, provider)

	strategy, events, msg, prior := delegateArgs()
	text, err := engine.Generate(context.Background(), strategy, events, msg, prior)
	require.NoError(t, err)
	assert.Equal(t, "Ana has every right to weigh in here.", text)

	assert.Contains(t, provider.prompt, "Competing", "prompt carries the strategy preamble")
	assert.Contains(t, provider.prompt, "gender_stereotype", "prompt carries the detected pattern")
	assert.Contains(t, provider.prompt, "the press decided the game", "prompt carries recent turns")
}

func TestDelegateUnwrapsCodeFences(t *testing.T) {
	provider := &stubProvider{response: "```json\n{\"text\": \"Everyone gets a say.\"}\n```"}
	engine := newDelegate(t, provider)

	strategy, events, msg, prior := delegateArgs()
	text, err := engine.Generate(context.Background(), strategy, events, msg, prior)
	require.NoError(t, err)
	assert.Equal(t, "Everyone gets a say.", text)
}

func TestDelegateErrorFallsBackToTemplates(t *testing.T) {
	provider := &stubProvider{err: context.DeadlineExceeded}
	engine := newDelegate(t, provider)

	strategy, events, msg, prior := delegateArgs()
	text, err := engine.Generate(context.Background(), strategy, events, msg, prior)
	require.NoError(t, err)
	assert.NotEmpty(t, text, "fallback text delivered on delegate timeout")
}

func TestDelegateRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":        "sure, here is my answer",
		"missing field":   `{"message": "hello"}`,
		"empty text":      `{"text": ""}`,
		"wrong type":      `{"text": 42}`,
		"whitespace text": `{"text": "   "}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			engine := newDelegate(t, &stubProvider{response: response})
			strategy, events, msg, prior := delegateArgs()

			text, err := engine.Generate(context.Background(), strategy, events, msg, prior)
			require.NoError(t, err)
			assert.NotEmpty(t, text, "invalid payload falls back, never empty")
			assert.NotContains(t, text, "hello")
		})
	}
}

func TestDelegateProviderErrorDoesNotSurface(t *testing.T) {
	engine := newDelegate(t, &stubProvider{err: errors.New("connection refused")})

	strategy, events, msg, prior := delegateArgs()
	_, err := engine.Generate(context.Background(), strategy, events, msg, prior)
	assert.NoError(t, err, "delegate failures are absorbed by the fallback")
}
