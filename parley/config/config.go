// Package config loads the mediator's configuration from file and
// environment, with validated defaults and optional live reload.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// envPrefix makes every key overridable as PARLEY_SECTION_KEY.
const envPrefix = "PARLEY"

// Config stores all configuration of the mediator. Values are read by viper
// from a config file or environment variables.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Delegate DelegateConfig `mapstructure:"delegate"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PipelineConfig tunes detection, gating, and caching.
type PipelineConfig struct {
	UrgencyThreshold  int      `mapstructure:"urgency_threshold"`   // Minimum urgency (1-5) that triggers an intervention
	CooldownSeconds   int      `mapstructure:"cooldown_seconds"`    // Minimum gap between interventions
	CooldownPerAuthor bool     `mapstructure:"cooldown_per_author"` // Key the cooldown by target author as well
	EnabledDetectors  []string `mapstructure:"enabled_detectors"`   // Category ids; empty means all
	GeneratorMode     string   `mapstructure:"generator_mode"`      // "template" or "delegate"
	CacheSize         int      `mapstructure:"cache_size"`          // Decision cache capacity; 0 disables
	CacheTTLSeconds   int      `mapstructure:"cache_ttl_seconds"`   // Decision cache entry TTL
	DetectorTimeoutMs int      `mapstructure:"detector_timeout_ms"` // Detector fan-out deadline
	HistoryWindow     int      `mapstructure:"history_window"`      // Retained turns per conversation (8-20)
	Topic             string   `mapstructure:"topic"`               // Optional label for the conversation's subject
}

// DelegateConfig configures the external generation model.
type DelegateConfig struct {
	Provider       string `mapstructure:"provider"` // "openai" or any OpenAI-compatible endpoint
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig configures optional decision persistence.
type StorageConfig struct {
	DSN string `mapstructure:"dsn"` // Path to the libsql database file; empty disables persistence
}

// LoggingConfig configures the ambient logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from configPath (or the default search path when
// empty) and the environment. A missing file is fine; defaults apply.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the config file on change and hands each valid new Config
// to onChange. Invalid edits are logged and skipped. The returned stop
// function ends the watch.
func Watch(configPath string, logger zerolog.Logger, onChange func(*Config)) (func(), error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config for watching: %w", err)
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			logger.Warn().Err(err).Str("file", event.Name).Msg("config reload failed to unmarshal, keeping previous")
			return
		}
		if err := cfg.Validate(); err != nil {
			logger.Warn().Err(err).Str("file", event.Name).Msg("config reload invalid, keeping previous")
			return
		}
		logger.Info().Str("file", event.Name).Str("op", event.Op.String()).Msg("config reloaded")
		onChange(&cfg)
	})
	v.WatchConfig()

	stopped := false
	return func() {
		// viper offers no unwatch; dropping the callback is enough.
		if !stopped {
			stopped = true
			v.OnConfigChange(func(fsnotify.Event) {})
		}
	}, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("etc/parley")
		v.SetConfigName("parley")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.urgency_threshold", 4)
	v.SetDefault("pipeline.cooldown_seconds", 30)
	v.SetDefault("pipeline.cooldown_per_author", false)
	v.SetDefault("pipeline.enabled_detectors", []string{})
	v.SetDefault("pipeline.generator_mode", "template")
	v.SetDefault("pipeline.cache_size", 256)
	v.SetDefault("pipeline.cache_ttl_seconds", 60)
	v.SetDefault("pipeline.detector_timeout_ms", 300)
	v.SetDefault("pipeline.history_window", 12)
	v.SetDefault("pipeline.topic", "")

	v.SetDefault("delegate.provider", "openai")
	v.SetDefault("delegate.model", "gpt-4o-mini")
	v.SetDefault("delegate.base_url", "")
	v.SetDefault("delegate.api_key", "")
	v.SetDefault("delegate.timeout_seconds", 10)

	v.SetDefault("storage.dsn", "")

	v.SetDefault("logging.level", "info")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.UrgencyThreshold < 1 || c.Pipeline.UrgencyThreshold > 5 {
		return fmt.Errorf("pipeline.urgency_threshold must be in 1..5, got %d", c.Pipeline.UrgencyThreshold)
	}
	if c.Pipeline.CooldownSeconds < 0 {
		return fmt.Errorf("pipeline.cooldown_seconds must not be negative, got %d", c.Pipeline.CooldownSeconds)
	}
	switch c.Pipeline.GeneratorMode {
	case "template", "delegate":
	default:
		return fmt.Errorf("pipeline.generator_mode must be %q or %q, got %q", "template", "delegate", c.Pipeline.GeneratorMode)
	}
	if c.Pipeline.GeneratorMode == "delegate" && c.Delegate.Model == "" {
		return fmt.Errorf("delegate.model is required when pipeline.generator_mode is %q", "delegate")
	}
	if c.Pipeline.CacheSize < 0 {
		return fmt.Errorf("pipeline.cache_size must not be negative, got %d", c.Pipeline.CacheSize)
	}
	return nil
}
