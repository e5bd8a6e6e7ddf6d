// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/literature-review/internal/httputil"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	defaultArxivResults = 10
	maxArxivResults     = 50
)

// ArxivTool searches the arXiv API and returns results in the labeled
// "Title:/Authors:/Year:/URL:/Abstract:" layout the extractor understands.
type ArxivTool struct {
	Client    *http.Client
	UserAgent string
	Retry     httputil.RetryPolicy
}

// Name returns the tool identifier.
func (a *ArxivTool) Name() string { return "search_arxiv" }

// Description tells the model what the tool does.
func (a *ArxivTool) Description() string {
	return "Search arXiv for academic papers. Returns title, authors, year, abstract URL, " +
		"and abstract for each match, ordered by relevance."
}

// InputSchema describes {"query": "...", "max_results": n}.
func (a *ArxivTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text search terms.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Number of results to return (1-50, default 10).",
			},
		},
		"required": []string{"query"},
	}
}

type arxivInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// Call runs the search named in input.
func (a *ArxivTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	var in arxivInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	q := buildArxivQuery(in.Query)
	if q == "" {
		return "", fmt.Errorf("empty arXiv query")
	}

	n := in.MaxResults
	if n <= 0 {
		n = defaultArxivResults
	}
	if n > maxArxivResults {
		n = maxArxivResults
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(n)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := a.Retry.Do(ctx, client, req)
	if err != nil {
		return "", fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return "No arXiv results for " + strconv.Quote(in.Query) + ".", nil
	}
	return formatArxivEntries(feed.Entries), nil
}

// buildArxivQuery ANDs every free-text term across all fields.
func buildArxivQuery(text string) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		terms[i] = "all:" + t
	}
	return strings.Join(terms, " AND ")
}

func formatArxivEntries(entries []arxivEntry) string {
	var b strings.Builder
	n := 0
	for _, e := range entries {
		id := extractArxivID(e.ID)
		if id == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. Title: %s\n", n, collapseSpace(e.Title))
		if len(e.Authors) > 0 {
			names := make([]string, 0, len(e.Authors))
			for _, au := range e.Authors {
				names = append(names, strings.TrimSpace(au.Name))
			}
			fmt.Fprintf(&b, "Authors: %s\n", strings.Join(names, ", "))
		}
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			fmt.Fprintf(&b, "Year: %d\n", t.Year())
		}
		b.WriteString("Venue: arXiv\n")
		fmt.Fprintf(&b, "URL: https://arxiv.org/abs/%s\n", id)
		fmt.Fprintf(&b, "Abstract: %s\n\n", collapseSpace(e.Summary))
	}
	return strings.TrimRight(b.String(), "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
