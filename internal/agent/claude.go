// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/literature-review/internal/httputil"
	"github.com/pdiddy/literature-review/internal/observability"
	"github.com/pdiddy/literature-review/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens = 4096
	defaultTimeout   = 2 * time.Minute
	anthropicVersion = "2023-06-01"
)

// systemPrompt frames every task. Tool descriptions are sent separately.
const systemPrompt = `You are a meticulous academic research assistant. You complete the user's task using the tools provided when they help: search Semantic Scholar for published papers with venues and citation counts, search arXiv for preprints, and fetch web pages to read them. Prefer primary sources. Never invent papers, authors, URLs, or numbers; if something cannot be found, say so. When you have what you need, reply with the final answer in exactly the format the task asks for and do not call further tools.`

// Claude runs tasks against the Claude Messages API. Each step is one API
// call; when the model requests tools the results are fed back and the next
// step begins. The run ends when the model answers without requesting a
// tool or when the step budget is spent.
type Claude struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
	Tools     []Tool

	// Limiter spaces API requests. Nil means no spacing.
	Limiter *rate.Limiter

	// Retry handles 429, 503 and 529 responses.
	Retry httputil.RetryPolicy

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewClaude builds a Claude agent from cfg with the given tools.
func NewClaude(cfg types.AIConfig, log zerolog.Logger, m *observability.Metrics, tools ...Tool) *Claude {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	var limiter *rate.Limiter
	if cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	log = log.With().Str("component", "claude").Str("model", model).Logger()
	return &Claude{
		APIKey:    cfg.APIKey,
		Model:     model,
		MaxTokens: cfg.MaxTokens,
		Client:    &http.Client{Timeout: timeout},
		Tools:     tools,
		Limiter:   limiter,
		Retry:     httputil.RetryPolicy{MaxRetries: cfg.MaxRetries, Logger: log},
		Logger:    log,
		Metrics:   m,
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model      string          `json:"model"`
	MaxTokens  int             `json:"max_tokens"`
	System     string          `json:"system,omitempty"`
	Messages   []claudeMessage `json:"messages"`
	Tools      []claudeTool    `json:"tools,omitempty"`
	ToolChoice *toolChoice     `json:"tool_choice,omitempty"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block: text, tool_use, or tool_result.
type claudeContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type claudeTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

type claudeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Run executes task and returns its *History. Running out of steps is not
// an error: the history is returned with Exhausted set. On the last step
// tools are disabled so the model has to answer.
func (c *Claude) Run(ctx context.Context, task Task) (Response, error) {
	maxSteps := task.MaxSteps
	if maxSteps < 1 {
		maxSteps = 1
	}

	msgs := []claudeMessage{{
		Role:    "user",
		Content: []claudeContent{{Type: "text", Text: task.Instruction}},
	}}
	h := &History{}
	defer func() { c.Metrics.ObserveAgentSteps(len(h.Steps)) }()

	for step := 1; step <= maxSteps; step++ {
		resp, err := c.send(ctx, msgs, step == maxSteps)
		if err != nil {
			return nil, err
		}

		var text []string
		var uses []claudeContent
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text = append(text, block.Text)
			case "tool_use":
				uses = append(uses, block)
			}
		}
		st := Step{Reply: strings.TrimSpace(strings.Join(text, "\n"))}

		if len(uses) == 0 || resp.StopReason != "tool_use" {
			h.Steps = append(h.Steps, st)
			h.Final = st.Reply
			c.Logger.Debug().Int("steps", step).Msg("task finished")
			return h, nil
		}

		msgs = append(msgs, claudeMessage{Role: "assistant", Content: echoContent(resp.Content)})
		results := make([]claudeContent, 0, len(uses))
		for _, u := range uses {
			call, result, err := c.callTool(ctx, u)
			if err != nil {
				return nil, err
			}
			st.Calls = append(st.Calls, call)
			results = append(results, result)
		}
		msgs = append(msgs, claudeMessage{Role: "user", Content: results})
		h.Steps = append(h.Steps, st)
	}

	h.Exhausted = true
	c.Logger.Warn().
		Int("max_steps", maxSteps).
		Str("transcript", h.Transcript()).
		Msg("step budget exhausted without a final answer")
	return h, nil
}

// callTool runs one tool request. Tool failures are reported back to the
// model as error results; only context cancellation aborts the run.
func (c *Claude) callTool(ctx context.Context, use claudeContent) (ToolCall, claudeContent, error) {
	call := ToolCall{Tool: use.Name, Input: string(use.Input)}
	result := claudeContent{Type: "tool_result", ToolUseID: use.ID}

	tool := c.tool(use.Name)
	if tool == nil {
		call.Err = fmt.Sprintf("unknown tool %q", use.Name)
		result.Content, result.IsError = call.Err, true
		c.Metrics.RecordToolCall(use.Name, "unknown")
		return call, result, nil
	}

	out, err := tool.Call(ctx, use.Input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return call, result, ctxErr
		}
		call.Err = err.Error()
		result.Content, result.IsError = call.Err, true
		c.Metrics.RecordToolCall(use.Name, "error")
		c.Logger.Debug().Err(err).Str("tool", use.Name).RawJSON("input", nonEmptyJSON(use.Input)).Msg("tool failed")
		return call, result, nil
	}

	call.Output = out
	result.Content = out
	if result.Content == "" {
		result.Content = "(no output)"
	}
	c.Metrics.RecordToolCall(use.Name, "ok")
	c.Logger.Debug().Str("tool", use.Name).Int("chars", len(out)).Msg("tool call")
	return call, result, nil
}

func (c *Claude) tool(name string) Tool {
	for _, t := range c.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// send performs one Messages API call.
func (c *Claude) send(ctx context.Context, msgs []claudeMessage, last bool) (*claudeResponse, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  msgs,
	}
	for _, t := range c.Tools {
		reqBody.Tools = append(reqBody.Tools, claudeTool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	if last && len(reqBody.Tools) > 0 {
		reqBody.ToolChoice = &toolChoice{Type: "none"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := c.Retry.Do(ctx, client, req)
	if err != nil {
		c.Metrics.RecordAgentRequest("error")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var eb claudeErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			apiErr.Type = eb.Error.Type
			apiErr.Message = eb.Error.Message
		}
		if httputil.Retryable(resp.StatusCode) {
			c.Metrics.RecordAgentRequest("rate_limited")
		} else {
			c.Metrics.RecordAgentRequest("error")
		}
		return nil, apiErr
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		c.Metrics.RecordAgentRequest("error")
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}
	if len(cResp.Content) == 0 {
		c.Metrics.RecordAgentRequest("error")
		return nil, fmt.Errorf("Claude API returned empty content")
	}

	c.Metrics.RecordAgentRequest("ok")
	return &cResp, nil
}

// echoContent drops empty text blocks, which the API rejects when an
// assistant turn is sent back.
func echoContent(blocks []claudeContent) []claudeContent {
	out := make([]claudeContent, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

func nonEmptyJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 || !json.Valid(raw) {
		return []byte("null")
	}
	return raw
}
