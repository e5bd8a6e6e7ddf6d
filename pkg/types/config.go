// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent by the fetch and arXiv tools.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIConfig holds settings for the text-generation collaborator.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the Claude model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the Claude API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens caps each model reply (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MinInterval is the minimum spacing between two API requests.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StepBudgets bounds how many tool-using steps the collaborator may take
// for each kind of request.
type StepBudgets struct {
	Search    int `json:"search" yaml:"search" mapstructure:"search"`
	Content   int `json:"content" yaml:"content" mapstructure:"content"`
	Filter    int `json:"filter" yaml:"filter" mapstructure:"filter"`
	Summary   int `json:"summary" yaml:"summary" mapstructure:"summary"`
	Synthesis int `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
}

// DefaultStepBudgets returns the per-request step budgets used when none are
// configured.
func DefaultStepBudgets() StepBudgets {
	return StepBudgets{
		Search:    15,
		Content:   12,
		Filter:    3,
		Summary:   5,
		Synthesis: 10,
	}
}

// WithDefaults fills zero budgets from DefaultStepBudgets.
func (b StepBudgets) WithDefaults() StepBudgets {
	d := DefaultStepBudgets()
	if b.Search <= 0 {
		b.Search = d.Search
	}
	if b.Content <= 0 {
		b.Content = d.Content
	}
	if b.Filter <= 0 {
		b.Filter = d.Filter
	}
	if b.Summary <= 0 {
		b.Summary = d.Summary
	}
	if b.Synthesis <= 0 {
		b.Synthesis = d.Synthesis
	}
	return b
}

// ReviewConfig holds the pipeline settings that do not vary per run.
type ReviewConfig struct {
	Steps StepBudgets `json:"steps" yaml:"steps" mapstructure:"steps"`

	// SummaryContentLimit truncates the text sent for each per-paper summary
	// (default 5000 characters).
	SummaryContentLimit int `json:"summary_content_limit" yaml:"summary_content_limit" mapstructure:"summary_content_limit"`
}

// StoreConfig holds settings for review persistence.
type StoreConfig struct {
	// OutputDir receives the papers JSON and review Markdown files and the
	// index/ directory holding the SQLite review index.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}
