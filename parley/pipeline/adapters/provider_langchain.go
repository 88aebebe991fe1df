package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// LangChainProvider bridges the delegate port onto a langchaingo model,
// bounding every call with its own timeout on top of the caller's context.
type LangChainProvider struct {
	model   llms.Model
	timeout time.Duration
}

// NewLangChainProvider wraps model. A non-positive timeout disables the
// per-call deadline and leaves cancellation to the caller's context.
func NewLangChainProvider(model llms.Model, timeout time.Duration) *LangChainProvider {
	return &LangChainProvider{model: model, timeout: timeout}
}

// Complete sends prompt to the model and returns its raw response.
func (p *LangChainProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(200),
	)
}

// NewOpenAIModel builds an OpenAI-compatible langchaingo model. baseURL is
// optional and allows pointing at compatible endpoints.
func NewOpenAIModel(model, baseURL, apiKey string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create delegate model: %w", err)
	}
	return llm, nil
}

var _ ports.DelegateProvider = (*LangChainProvider)(nil)
