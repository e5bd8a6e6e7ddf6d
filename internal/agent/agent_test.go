// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/pdiddy/literature-review/internal/httputil"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	if code := m.Run(); code != 0 {
		os.Exit(code)
	}
	if err := goleak.Find(
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	); err != nil {
		os.Stderr.WriteString("goleak: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"nil", nil, ""},
		{"text", Text("plain answer"), "plain answer"},
		{"nil history", (*History)(nil), ""},
		{
			name: "history with final",
			resp: &History{
				Steps: []Step{{Reply: "Let me search."}, {Reply: "Here it is."}},
				Final: "Here it is.",
			},
			want: "Here it is.",
		},
		{
			name: "exhausted history joins replies",
			resp: &History{
				Steps:     []Step{{Reply: "Searching arXiv."}, {Reply: "  "}, {Reply: "Title: Partial"}},
				Exhausted: true,
			},
			want: "Searching arXiv.\n\nTitle: Partial",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.resp))
		})
	}
}

func TestHistory_Transcript(t *testing.T) {
	h := &History{
		Steps: []Step{
			{
				Reply: "Looking up the paper.",
				Calls: []ToolCall{
					{Tool: "fetch_page", Input: `{"url":"https://x/y"}`, Output: "12345"},
					{Tool: "search_arxiv", Input: `{"query":"q"}`, Err: "arXiv API returned HTTP 503"},
				},
			},
			{Reply: "Done."},
		},
		Final: "Done.",
	}

	got := h.Transcript()
	assert.Contains(t, got, "## Step 1\nLooking up the paper.")
	assert.Contains(t, got, `- fetch_page({"url":"https://x/y"}): 5 chars`)
	assert.Contains(t, got, "- search_arxiv({\"query\":\"q\"}): error: arXiv API returned HTTP 503")
	assert.Contains(t, got, "## Step 2\nDone.")
	assert.Equal(t, "", (*History)(nil).Transcript())
}

func TestAPIError(t *testing.T) {
	e := &APIError{StatusCode: 529, Type: "overloaded_error", Message: "Overloaded"}
	assert.Equal(t, "claude: API error (status 529, type overloaded_error): Overloaded", e.Error())
	assert.True(t, e.IsTransient())

	e = &APIError{StatusCode: 400, Message: "bad request"}
	assert.Equal(t, "claude: API error (status 400): bad request", e.Error())
	assert.False(t, e.IsTransient())

	assert.True(t, (&APIError{StatusCode: 429}).IsTransient())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héll"+truncatedMarker, truncate("héllo wörld", 4))
}
