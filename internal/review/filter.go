// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/extract"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

// FilterStage scores papers against the topic and drops the weak ones.
type FilterStage struct {
	Agent  agent.Agent
	Steps  int
	Logger zerolog.Logger
}

// Filter asks for a relevance score for every paper, stamps it on the
// paper in papers (kept or not), and returns the papers scoring at least
// threshold, highest score first. Equal scores keep their input order.
//
// A reply without a recognizable score counts as extract.DefaultScore.
func (s *FilterStage) Filter(ctx context.Context, papers []types.Paper, topic string, threshold float64) ([]types.Paper, error) {
	kept := make([]types.Paper, 0, len(papers))
	for i := range papers {
		p := &papers[i]
		prompt, err := render(filterPromptTmpl, filterPromptData{Topic: topic, Paper: *p})
		if err != nil {
			return nil, err
		}
		text, err := ask(ctx, s.Agent, prompt, s.Steps)
		if err != nil {
			return nil, fmt.Errorf("scoring paper %d %q: %w", i+1, p.Title, err)
		}

		score, found := extract.ParseScore(text)
		if !found {
			score = extract.DefaultScore
		}
		p.RelevanceScore = score
		keep := score >= threshold

		plog := observability.WithPaperContext(s.Logger, i, p.Title)
		plog.Info().
			Float64("score", score).
			Bool("parsed", found).
			Bool("kept", keep).
			Msg("relevance assessed")
		if keep {
			kept = append(kept, *p)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	return kept, nil
}
