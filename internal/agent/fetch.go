// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/pdiddy/literature-review/internal/httputil"
)

// Tool is a capability the agent can invoke during a run.
type Tool interface {
	Name() string
	Description() string

	// InputSchema is the JSON Schema of the tool input object.
	InputSchema() map[string]any

	// Call runs the tool. Errors are reported to the model, not the caller.
	Call(ctx context.Context, input json.RawMessage) (string, error)
}

const (
	defaultFetchChars = 20000
	maxFetchBytes     = 4 << 20
	truncatedMarker   = "\n\n[content truncated]"
)

// FetchTool downloads a web page and returns it as Markdown so the model can
// read paper landing pages, abstracts, and HTML full texts.
type FetchTool struct {
	Client    *http.Client
	UserAgent string

	// MaxChars bounds the returned text (default 20000 characters).
	MaxChars int

	Retry httputil.RetryPolicy
}

// Name returns the tool identifier.
func (f *FetchTool) Name() string { return "fetch_page" }

// Description tells the model what the tool does.
func (f *FetchTool) Description() string {
	return "Fetch a web page by URL and return its readable content as Markdown. " +
		"Use it to open paper landing pages, abstracts, and HTML full texts. Long pages are truncated."
}

// InputSchema describes {"url": "..."}.
func (f *FetchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Absolute http or https URL to fetch.",
			},
		},
		"required": []string{"url"},
	}
}

type fetchInput struct {
	URL string `json:"url"`
}

// Call fetches the page named in input.
func (f *FetchTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	var in fetchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: must be absolute http or https", in.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := f.Retry.Do(ctx, client, req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", u, err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	var text string
	switch {
	case mediaType == "" || strings.Contains(mediaType, "html"):
		converter := md.NewConverter(u.Scheme+"://"+u.Host, true, nil)
		text, err = converter.ConvertString(string(body))
		if err != nil {
			return "", fmt.Errorf("converting %s to markdown: %w", u, err)
		}
	case strings.HasPrefix(mediaType, "text/"), strings.HasSuffix(mediaType, "json"), strings.HasSuffix(mediaType, "xml"):
		text = string(body)
	default:
		return "", fmt.Errorf("unsupported content type %q at %s", mediaType, u)
	}

	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = defaultFetchChars
	}
	return truncate(strings.TrimSpace(text), maxChars), nil
}

// truncate cuts s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + truncatedMarker
}
