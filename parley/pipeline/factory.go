package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"

	"github.com/equalvoice/parley-mediator/parley/config"
	"github.com/equalvoice/parley-mediator/parley/conversation"
	"github.com/equalvoice/parley-mediator/parley/pipeline/adapters"
	"github.com/equalvoice/parley-mediator/parley/pipeline/detectors"
	"github.com/equalvoice/parley-mediator/parley/pipeline/generate"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// Factory assembles an Evaluator from configuration, substituting no-op
// adapters for everything that is disabled.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
	db     *sql.DB
	model  llms.Model
	tracer ports.Tracer
}

// NewFactory creates a factory for cfg.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// WithDB injects an already-open database, overriding storage.dsn.
func (f *Factory) WithDB(db *sql.DB) *Factory {
	f.db = db
	return f
}

// WithModel injects the delegate model, overriding the delegate.* settings.
func (f *Factory) WithModel(model llms.Model) *Factory {
	f.model = model
	return f
}

// WithTracer overrides the default zerolog tracer.
func (f *Factory) WithTracer(tracer ports.Tracer) *Factory {
	f.tracer = tracer
	return f
}

// Build wires the evaluator.
func (f *Factory) Build() (*Evaluator, error) {
	dets, err := detectors.Build(f.cfg.Pipeline.EnabledDetectors, f.logger)
	if err != nil {
		return nil, err
	}

	engine, err := f.createEngine()
	if err != nil {
		return nil, err
	}

	store, err := f.createStore()
	if err != nil {
		return nil, err
	}

	opts := Options{
		UrgencyThreshold:  f.cfg.Pipeline.UrgencyThreshold,
		CooldownPerAuthor: f.cfg.Pipeline.CooldownPerAuthor,
		DetectorTimeout:   time.Duration(f.cfg.Pipeline.DetectorTimeoutMs) * time.Millisecond,
		CacheTTLSeconds:   f.cfg.Pipeline.CacheTTLSeconds,
	}

	return NewEvaluator(opts,
		conversation.NewHistory(f.cfg.Pipeline.HistoryWindow),
		dets,
		f.createCache(),
		adapters.NewWindowGate(time.Duration(f.cfg.Pipeline.CooldownSeconds)*time.Second),
		engine,
		store,
		f.createTracer(),
		f.logger,
	), nil
}

func (f *Factory) createCache() ports.Cache {
	if f.cfg.Pipeline.CacheSize <= 0 {
		return &noOpCache{}
	}
	return adapters.NewTTLCache(f.cfg.Pipeline.CacheSize)
}

func (f *Factory) createEngine() (ports.Engine, error) {
	templates, err := generate.NewTemplateEngine(f.logger, f.cfg.Pipeline.Topic)
	if err != nil {
		return nil, err
	}
	if f.cfg.Pipeline.GeneratorMode != "delegate" {
		return templates, nil
	}

	model := f.model
	if model == nil {
		model, err = adapters.NewOpenAIModel(f.cfg.Delegate.Model, f.cfg.Delegate.BaseURL, f.cfg.Delegate.APIKey)
		if err != nil {
			return nil, err
		}
	}
	provider := adapters.NewLangChainProvider(model,
		time.Duration(f.cfg.Delegate.TimeoutSeconds)*time.Second)
	return generate.NewDelegateEngine(provider, templates, f.logger)
}

func (f *Factory) createStore() (ports.DecisionStore, error) {
	if f.db != nil {
		return adapters.NewLibSQLDecisionStore(f.db), nil
	}
	if f.cfg.Storage.DSN == "" {
		return &noOpStore{}, nil
	}
	db, err := adapters.OpenDatabase(f.cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision store: %w", err)
	}
	return adapters.NewLibSQLDecisionStore(db), nil
}

func (f *Factory) createTracer() ports.Tracer {
	if f.tracer != nil {
		return f.tracer
	}
	return adapters.NewZerologTracer(f.logger)
}

// noOpCache misses every read and discards every write.
type noOpCache struct{}

func (n *noOpCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (n *noOpCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (n *noOpCache) Delete(ctx context.Context, key string) error { return nil }

// noOpStore drops every write and remembers nothing.
type noOpStore struct{}

func (n *noOpStore) SaveMessage(ctx context.Context, msg conversation.Message) error { return nil }
func (n *noOpStore) SaveDecision(ctx context.Context, d ports.Decision) error        { return nil }
func (n *noOpStore) RecentDecisions(ctx context.Context, conversationID string, k int) ([]ports.Decision, error) {
	return nil, nil
}

var (
	_ ports.Cache         = (*noOpCache)(nil)
	_ ports.DecisionStore = (*noOpStore)(nil)
)
