// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/extract"
	"github.com/pdiddy/literature-review/pkg/types"
)

// ContentStage retrieves the full text of papers.
type ContentStage struct {
	Agent  agent.Agent
	Steps  int
	Logger zerolog.Logger
}

// Retrieve returns p with FullText, and when the reply names them, Keywords
// and Citations filled in. A paper without a URL comes back unchanged and
// no request is made.
func (s *ContentStage) Retrieve(ctx context.Context, p types.Paper) (types.Paper, error) {
	if p.URL == "" {
		s.Logger.Info().Str("title", p.Title).Str("reason", "no_url").Msg("skipping content retrieval")
		return p, nil
	}

	prompt, err := render(contentPromptTmpl, p)
	if err != nil {
		return p, err
	}
	text, err := ask(ctx, s.Agent, prompt, s.Steps)
	if err != nil {
		return p, fmt.Errorf("retrieving %s: %w", p.URL, err)
	}

	text = strings.TrimSpace(text)
	p.FullText = &text
	if kw := extract.Keywords(text); len(kw) > 0 {
		p.Keywords = kw
	}
	if n, ok := extract.Citations(text); ok {
		p.Citations = types.IntPtr(n)
	}

	s.Logger.Debug().
		Str("title", p.Title).
		Int("chars", len(text)).
		Int("keywords", len(p.Keywords)).
		Msg("content retrieved")
	return p, nil
}

// RetrievePrefix runs Retrieve over the first n papers in order and leaves
// the rest untouched. The input slice is not modified.
func (s *ContentStage) RetrievePrefix(ctx context.Context, papers []types.Paper, n int) ([]types.Paper, error) {
	out := make([]types.Paper, len(papers))
	copy(out, papers)
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		p, err := s.Retrieve(ctx, out[i])
		if err != nil {
			return nil, fmt.Errorf("paper %d: %w", i+1, err)
		}
		out[i] = p
	}
	return out, nil
}
