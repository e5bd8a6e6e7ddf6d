// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review runs the literature review pipeline: search, content
// retrieval over a prefix of the results, relevance filtering, and
// summarization, in that fixed order. Every stage talks to the
// text-generation collaborator through agent.Agent and recovers structure
// from its replies with package extract.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/literature-review/pkg/types"
)

// Stage names used in errors, logs, and metrics.
const (
	StageSearch  = "search"
	StageContent = "content"
	StageFilter  = "filter"
	StageSummary = "summary"
	StagePersist = "persist"
)

// Defaults for Options.
const (
	DefaultMaxPapers         = 15
	DefaultMaxFullTextPapers = 10
	DefaultThreshold         = 0.7
)

// ErrInvalidOptions is wrapped by every Options.Validate failure.
var ErrInvalidOptions = errors.New("invalid review options")

// Options are the per-run inputs of a review.
type Options struct {
	Topic string

	// MaxPapers is the number of papers requested from the search
	// collaborator. It is advisory: the result is not truncated to it.
	MaxPapers int

	// MaxFullTextPapers is the length of the prefix of search results whose
	// content is retrieved.
	MaxFullTextPapers int

	// Threshold is the inclusive minimum relevance score a paper needs to be
	// kept.
	Threshold float64

	// Persist asks the runner to hand the result to its Persister.
	Persist bool
}

// DefaultOptions returns the options used when the caller only names a
// topic.
func DefaultOptions(topic string) Options {
	return Options{
		Topic:             topic,
		MaxPapers:         DefaultMaxPapers,
		MaxFullTextPapers: DefaultMaxFullTextPapers,
		Threshold:         DefaultThreshold,
		Persist:           true,
	}
}

// Validate reports the first problem with o.
func (o Options) Validate() error {
	switch {
	case o.Topic == "":
		return fmt.Errorf("%w: topic is empty", ErrInvalidOptions)
	case o.MaxPapers < 1:
		return fmt.Errorf("%w: max papers must be at least 1, got %d", ErrInvalidOptions, o.MaxPapers)
	case o.MaxFullTextPapers < 0:
		return fmt.Errorf("%w: max full-text papers must not be negative, got %d", ErrInvalidOptions, o.MaxFullTextPapers)
	case o.Threshold < 0 || o.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within [0, 1], got %g", ErrInvalidOptions, o.Threshold)
	}
	return nil
}

// Runner produces a review. The orchestrator and the demo runner both
// implement it, so callers do not care which one they drive.
type Runner interface {
	Run(ctx context.Context, opts Options) (*types.ReviewResult, error)
}

// Persister writes a finished review to durable storage and returns the
// locations it wrote, keyed by types.SavedPapersFile and friends.
type Persister interface {
	Save(ctx context.Context, topic string, papers []types.Paper, review string) (map[string]string, error)
}

// StageError reports which stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
