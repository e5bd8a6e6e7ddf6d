// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/literature-review/internal/httputil"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields        = "title,abstract,authors,externalIds,year,venue,citationCount,url"
	defaultSemanticResult = 10
	maxSemanticResults    = 100
)

// SemanticScholarTool searches Semantic Scholar. Results carry venues and
// citation counts.
type SemanticScholarTool struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.RetryPolicy
}

// Name returns the tool identifier.
func (s *SemanticScholarTool) Name() string { return "search_semantic_scholar" }

// Description tells the model what the tool does.
func (s *SemanticScholarTool) Description() string {
	return "Search Semantic Scholar for academic papers across all fields. Returns title, " +
		"authors, year, venue, citation count, URL, and abstract for each match."
}

// InputSchema describes {"query": "...", "max_results": n, "year": "2019-2024"}.
func (s *SemanticScholarTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text search terms.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Number of results to return (1-100, default 10).",
			},
			"year": map[string]any{
				"type":        "string",
				"description": `Optional publication year or range, e.g. "2021", "2019-2023", "2020-".`,
			},
		},
		"required": []string{"query"},
	}
}

type semanticInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Year       string `json:"year"`
}

// Call runs the search named in input.
func (s *SemanticScholarTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	var in semanticInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	q := collapseSpace(in.Query)
	if q == "" {
		return "", fmt.Errorf("empty Semantic Scholar query")
	}

	n := in.MaxResults
	if n <= 0 {
		n = defaultSemanticResult
	}
	if n > maxSemanticResults {
		n = maxSemanticResults
	}

	params := url.Values{
		"query":  {q},
		"limit":  {strconv.Itoa(n)},
		"fields": {semanticFields},
	}
	if y := strings.TrimSpace(in.Year); y != "" {
		params.Set("year", y)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := s.Retry.Do(ctx, client, req)
	if err != nil {
		return "", fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	if len(sr.Data) == 0 {
		return "No Semantic Scholar results for " + strconv.Quote(q) + ".", nil
	}
	return formatSemanticPapers(sr.Data), nil
}

func formatSemanticPapers(papers []semanticPaper) string {
	var b strings.Builder
	n := 0
	for _, p := range papers {
		title := collapseSpace(p.Title)
		if title == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. Title: %s\n", n, title)
		if len(p.Authors) > 0 {
			names := make([]string, 0, len(p.Authors))
			for _, a := range p.Authors {
				names = append(names, strings.TrimSpace(a.Name))
			}
			fmt.Fprintf(&b, "Authors: %s\n", strings.Join(names, ", "))
		}
		if p.Year > 0 {
			fmt.Fprintf(&b, "Year: %d\n", p.Year)
		}
		if v := collapseSpace(p.Venue); v != "" {
			fmt.Fprintf(&b, "Venue: %s\n", v)
		}
		if p.CitationCount != nil {
			fmt.Fprintf(&b, "Citations: %d\n", *p.CitationCount)
		}
		if u := p.link(); u != "" {
			fmt.Fprintf(&b, "URL: %s\n", u)
		}
		if abs := collapseSpace(p.Abstract); abs != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", abs)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Venue         string              `json:"venue"`
	CitationCount *int                `json:"citationCount"`
	URL           string              `json:"url"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// link prefers an arXiv abstract page, then a DOI, then the Semantic
// Scholar page.
func (p semanticPaper) link() string {
	switch {
	case p.ExternalIDs.ArXiv != "":
		return "https://arxiv.org/abs/" + p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		return "https://doi.org/" + p.ExternalIDs.DOI
	default:
		return p.URL
	}
}
