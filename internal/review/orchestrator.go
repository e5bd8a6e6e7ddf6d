// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

const modeLive = "live"

var _ Runner = (*Orchestrator)(nil)

// Orchestrator drives the four stages against a live collaborator.
type Orchestrator struct {
	Search  *SearchStage
	Content *ContentStage
	Filter  *FilterStage
	Summary *SummaryStage

	// Persister may be nil, in which case Options.Persist is ignored.
	Persister Persister

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewOrchestrator wires every stage to the same collaborator. Zero step
// budgets in cfg take their defaults.
func NewOrchestrator(a agent.Agent, cfg types.ReviewConfig, p Persister, log zerolog.Logger, m *observability.Metrics) *Orchestrator {
	steps := cfg.Steps.WithDefaults()
	return &Orchestrator{
		Search:  &SearchStage{Agent: a, Steps: steps.Search, Logger: log, Metrics: m},
		Content: &ContentStage{Agent: a, Steps: steps.Content, Logger: log},
		Filter:  &FilterStage{Agent: a, Steps: steps.Filter, Logger: log},
		Summary: &SummaryStage{
			Agent:          a,
			SummarySteps:   steps.Summary,
			SynthesisSteps: steps.Synthesis,
			ContentLimit:   cfg.SummaryContentLimit,
			Logger:         log,
		},
		Persister: p,
		Logger:    log,
		Metrics:   m,
	}
}

// Run executes search, content retrieval over the first
// opts.MaxFullTextPapers results, filtering, and summarization, once each
// and in that order. A collaborator failure ends the run with a
// *StageError. A persistence failure does not: the result carries the
// papers and review with PersistError set.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*types.ReviewResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := observability.WithReviewContext(o.Logger, runID, opts.Topic)
	o.Metrics.RecordReviewStarted(modeLive)
	log.Info().
		Int("max_papers", opts.MaxPapers).
		Int("max_full_text_papers", opts.MaxFullTextPapers).
		Float64("threshold", opts.Threshold).
		Msg("review started")

	var papers []types.Paper
	err := o.stage(log, StageSearch, func() (err error) {
		papers, err = o.Search.Search(ctx, opts.Topic, opts.MaxPapers)
		return err
	})
	if err != nil {
		return nil, err
	}
	found := len(papers)

	err = o.stage(log, StageContent, func() (err error) {
		papers, err = o.Content.RetrievePrefix(ctx, papers, opts.MaxFullTextPapers)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(log, StageFilter, func() (err error) {
		papers, err = o.Filter.Filter(ctx, papers, opts.Topic, opts.Threshold)
		return err
	})
	if err != nil {
		return nil, err
	}
	o.Metrics.RecordPapers(found, len(papers))

	var text string
	err = o.stage(log, StageSummary, func() (err error) {
		text, err = o.Summary.Summarize(ctx, papers, opts.Topic)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &types.ReviewResult{Topic: opts.Topic, Papers: papers, Review: text}
	if opts.Persist && o.Persister != nil {
		persist(ctx, log, o.Persister, o.Metrics, result)
	}

	o.Metrics.RecordReviewCompleted(modeLive)
	log.Info().Int("found", found).Int("retained", len(papers)).Msg("review complete")
	return result, nil
}

// stage times fn and wraps its failure in a *StageError.
func (o *Orchestrator) stage(log zerolog.Logger, name string, fn func() error) error {
	log.Info().Str("stage", name).Msg("stage started")
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	o.Metrics.ObserveStage(name, elapsed)
	if err != nil {
		o.Metrics.RecordReviewFailed(name)
		log.Error().Err(err).Str("stage", name).Dur("elapsed", elapsed).Msg("stage failed")
		return &StageError{Stage: name, Err: err}
	}
	log.Info().Str("stage", name).Dur("elapsed", elapsed).Msg("stage finished")
	return nil
}

// persist saves result through p, recording a failure on the result
// instead of returning it.
func persist(ctx context.Context, log zerolog.Logger, p Persister, m *observability.Metrics, result *types.ReviewResult) {
	saved, err := p.Save(ctx, result.Topic, result.Papers, result.Review)
	if err != nil {
		m.RecordPersistFailure()
		log.Error().Err(err).Str("stage", StagePersist).Msg("saving review failed")
		result.PersistError = err.Error()
		return
	}
	result.Saved = saved
	log.Info().
		Str("papers_file", saved[types.SavedPapersFile]).
		Str("review_file", saved[types.SavedReviewFile]).
		Msg("review saved")
}
