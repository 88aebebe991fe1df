package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equalvoice/parley-mediator/parley/config"
	"github.com/equalvoice/parley-mediator/parley/conversation"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			UrgencyThreshold:  4,
			CooldownSeconds:   30,
			GeneratorMode:     "template",
			CacheSize:         64,
			CacheTTLSeconds:   60,
			DetectorTimeoutMs: 300,
			HistoryWindow:     12,
		},
	}
}

func TestFactoryBuildsWorkingEvaluator(t *testing.T) {
	e, err := NewFactory(testConfig(), zerolog.Nop()).Build()
	require.NoError(t, err)

	d, err := e.Evaluate(context.Background(),
		conversation.NewMessage("conv-1", "ben", conversation.GenderMale, "you're a girl, what would you know"))
	require.NoError(t, err)
	assert.True(t, d.ShouldIntervene)
	assert.NotEmpty(t, d.Text)
}

func TestFactoryRejectsUnknownDetector(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.EnabledDetectors = []string{"sentiment"}

	_, err := NewFactory(cfg, zerolog.Nop()).Build()
	assert.Error(t, err)
}

func TestFactoryDisabledCacheStillEvaluates(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.CacheSize = 0

	e, err := NewFactory(cfg, zerolog.Nop()).Build()
	require.NoError(t, err)

	msg := conversation.NewMessage("conv-1", "ben", conversation.GenderMale, "girls don't get this game")
	first, err := e.Evaluate(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, first.ShouldIntervene)

	// Without a cache the redelivery is re-evaluated; cooldown suppresses it.
	second, err := e.Evaluate(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.False(t, second.ShouldIntervene)
}

func TestFactorySubsetOfDetectors(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.EnabledDetectors = []string{"expression_difficulty"}

	e, err := NewFactory(cfg, zerolog.Nop()).Build()
	require.NoError(t, err)

	// Aggressive content passes untouched when only expression runs.
	d, err := e.Evaluate(context.Background(),
		conversation.NewMessage("conv-1", "ben", conversation.GenderMale, "girls don't get this game"))
	require.NoError(t, err)
	assert.False(t, d.ShouldIntervene)
}
