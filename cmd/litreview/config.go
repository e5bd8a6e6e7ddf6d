// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/internal/review"
	"github.com/pdiddy/literature-review/internal/secrets"
	"github.com/pdiddy/literature-review/pkg/types"
)

// setDefaults registers every configuration key so that config files and
// LITREVIEW_* environment variables can override it.
func setDefaults() {
	steps := types.DefaultStepBudgets()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("secrets_dir", ".secrets")
	viper.SetDefault("output_dir", "output")

	viper.SetDefault("model", "")
	viper.SetDefault("api_key", "")
	viper.SetDefault("max_tokens", 4096)
	viper.SetDefault("min_interval", time.Second)
	viper.SetDefault("max_retries", 5)
	viper.SetDefault("timeout", 2*time.Minute)
	viper.SetDefault("user_agent", "litreview/"+version)

	viper.SetDefault("max_papers", review.DefaultMaxPapers)
	viper.SetDefault("max_full_text_papers", review.DefaultMaxFullTextPapers)
	viper.SetDefault("relevance_threshold", review.DefaultThreshold)
	viper.SetDefault("summary_content_limit", review.DefaultSummaryContentLimit)
	viper.SetDefault("steps.search", steps.Search)
	viper.SetDefault("steps.content", steps.Content)
	viper.SetDefault("steps.filter", steps.Filter)
	viper.SetDefault("steps.summary", steps.Summary)
	viper.SetDefault("steps.synthesis", steps.Synthesis)
}

func loggingConfig() observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:  viper.GetString("log_level"),
		Format: viper.GetString("log_format"),
		Output: "stderr",
	}
}

// aiConfig reads the collaborator settings. The API key comes from the
// config when set there, else from .secrets/anthropic-api-key or
// ANTHROPIC_API_KEY.
func aiConfig() (types.AIConfig, error) {
	var cfg types.AIConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading AI config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = loadedSecrets.Lookup(secrets.AnthropicAPIKey, secrets.AnthropicAPIKeyEnv)
	}
	return cfg, nil
}

func reviewConfig() (types.ReviewConfig, error) {
	var cfg types.ReviewConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading review config: %w", err)
	}
	return cfg, nil
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{OutputDir: viper.GetString("output_dir")}
}

// reviewOptions builds run options for topic from flags bound to viper.
func reviewOptions(topic string, persist bool) review.Options {
	return review.Options{
		Topic:             topic,
		MaxPapers:         viper.GetInt("max_papers"),
		MaxFullTextPapers: viper.GetInt("max_full_text_papers"),
		Threshold:         viper.GetFloat64("relevance_threshold"),
		Persist:           persist,
	}
}
