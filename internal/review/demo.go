// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

const modeDemo = "demo"

var _ Runner = (*DemoRunner)(nil)

//go:embed demo.yaml
var demoYAML []byte

type demoDataset struct {
	Papers []types.Paper `yaml:"papers"`
	Review string        `yaml:"review"`
}

// DemoRunner serves a fixed dataset instead of calling a collaborator. It
// is used when no API key is configured or when asked for explicitly.
type DemoRunner struct {
	// Persister may be nil, in which case Options.Persist is ignored.
	Persister Persister

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Run returns the demo papers scoring at least opts.Threshold and the demo
// review with opts.Topic filled in. Paper counts in opts are ignored.
func (d *DemoRunner) Run(ctx context.Context, opts Options) (*types.ReviewResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := d.Logger.With().Str("topic", opts.Topic).Bool("demo", true).Logger()
	d.Metrics.RecordReviewStarted(modeDemo)

	data, err := loadDemoDataset()
	if err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(data.Papers))
	for _, p := range data.Papers {
		if p.RelevanceScore >= opts.Threshold {
			papers = append(papers, p)
		}
	}
	d.Metrics.RecordPapers(len(data.Papers), len(papers))

	tmpl, err := template.New("demo").Parse(data.Review)
	if err != nil {
		return nil, fmt.Errorf("parsing demo review: %w", err)
	}
	text, err := render(tmpl, struct{ Topic string }{opts.Topic})
	if err != nil {
		return nil, err
	}

	result := &types.ReviewResult{Topic: opts.Topic, Papers: papers, Review: text, Demo: true}
	if opts.Persist && d.Persister != nil {
		persist(ctx, log, d.Persister, d.Metrics, result)
	}

	d.Metrics.RecordReviewCompleted(modeDemo)
	log.Info().Int("retained", len(papers)).Msg("demo review complete")
	return result, nil
}

func loadDemoDataset() (*demoDataset, error) {
	var data demoDataset
	if err := yaml.Unmarshal(demoYAML, &data); err != nil {
		return nil, fmt.Errorf("parsing demo dataset: %w", err)
	}
	return &data, nil
}
