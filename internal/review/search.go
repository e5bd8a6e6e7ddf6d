// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/extract"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

// ask issues one task and normalizes the reply to text. A canceled ctx
// fails before the task is sent.
func ask(ctx context.Context, a agent.Agent, instruction string, steps int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := a.Run(ctx, agent.Task{Instruction: instruction, MaxSteps: steps})
	if err != nil {
		return "", err
	}
	return agent.Normalize(resp), nil
}

// SearchStage discovers candidate papers for a topic.
type SearchStage struct {
	Agent   agent.Agent
	Steps   int
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Search asks the collaborator for at least maxPapers papers on topic and
// maps whatever it can extract to Paper records. The count is a request,
// not a cap: fewer or more papers may come back, and none is not an error.
func (s *SearchStage) Search(ctx context.Context, topic string, maxPapers int) ([]types.Paper, error) {
	prompt, err := render(searchPromptTmpl, searchPromptData{Topic: topic, MaxPapers: maxPapers})
	if err != nil {
		return nil, err
	}
	text, err := ask(ctx, s.Agent, prompt, s.Steps)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", topic, err)
	}

	candidates, tier := extract.ExtractWithTier(text)
	s.Metrics.RecordExtractionTier(tier.String())

	papers := make([]types.Paper, 0, len(candidates))
	for _, c := range candidates {
		papers = append(papers, PaperFromCandidate(c))
	}
	s.Logger.Info().
		Str("tier", tier.String()).
		Int("found", len(papers)).
		Int("requested", maxPapers).
		Msg("search complete")
	return papers, nil
}

// PaperFromCandidate builds a Paper record from recovered fields,
// defaulting whatever is missing.
func PaperFromCandidate(c extract.Candidate) types.Paper {
	p := types.Paper{
		Title:   types.UnknownTitle,
		Authors: c.Strings(extract.KeyAuthors),
	}
	if title, ok := c.String(extract.KeyTitle); ok && title != "" {
		p.Title = title
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}
	p.Abstract, _ = c.String(extract.KeyAbstract)
	p.URL, _ = c.String(extract.KeyURL)
	if y, ok := c.Year(extract.KeyYear); ok {
		p.Year = types.IntPtr(y)
	}
	if v, ok := c.String(extract.KeyVenue); ok && v != "" {
		p.Venue = types.StringPtr(v)
	}
	p.Keywords = []string{}
	return p
}
