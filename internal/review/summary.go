// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

// DefaultSummaryContentLimit bounds the paper text sent in one summary
// request.
const DefaultSummaryContentLimit = 5000

// SummaryStage writes per-paper summaries and synthesizes them into the
// review text.
type SummaryStage struct {
	Agent          agent.Agent
	SummarySteps   int
	SynthesisSteps int

	// ContentLimit is the number of characters of full text (or abstract)
	// sent per paper. Zero means DefaultSummaryContentLimit.
	ContentLimit int

	Logger zerolog.Logger
}

// Summarize summarizes each paper in order, then asks for one synthesis
// over all summaries and returns its text as is.
func (s *SummaryStage) Summarize(ctx context.Context, papers []types.Paper, topic string) (string, error) {
	limit := s.ContentLimit
	if limit <= 0 {
		limit = DefaultSummaryContentLimit
	}

	entries := make([]summaryEntry, 0, len(papers))
	for i, p := range papers {
		content := p.Abstract
		if p.HasFullText() {
			content = *p.FullText
		}
		prompt, err := render(summaryPromptTmpl, summaryPromptData{
			Topic:   topic,
			Paper:   p,
			Content: prefix(content, limit),
		})
		if err != nil {
			return "", err
		}
		summary, err := ask(ctx, s.Agent, prompt, s.SummarySteps)
		if err != nil {
			return "", fmt.Errorf("summarizing paper %d %q: %w", i+1, p.Title, err)
		}
		plog := observability.WithPaperContext(s.Logger, i, p.Title)
		plog.Debug().Msg("paper summarized")
		entries = append(entries, summaryEntry{Paper: p, Summary: summary})
	}

	prompt, err := render(synthesisPromptTmpl, synthesisPromptData{Topic: topic, Entries: entries})
	if err != nil {
		return "", err
	}
	text, err := ask(ctx, s.Agent, prompt, s.SynthesisSteps)
	if err != nil {
		return "", fmt.Errorf("synthesizing review: %w", err)
	}
	s.Logger.Info().Int("papers", len(entries)).Int("chars", len(text)).Msg("review synthesized")
	return text, nil
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
