// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent is the boundary to the text-generation collaborator. An
// Agent receives a natural-language task with a step budget and returns a
// Response, which is either plain text or the structured history of a
// multi-step tool-using run. Normalize turns either into a single string
// for extraction.
package agent

import (
	"context"
	"fmt"
	"strings"
)

// Task is one request to the collaborator.
type Task struct {
	// Instruction is the natural-language task.
	Instruction string

	// MaxSteps bounds the number of model turns the agent may take.
	// Values below 1 are treated as 1.
	MaxSteps int
}

// Agent issues tasks to a text-generation collaborator.
type Agent interface {
	Run(ctx context.Context, task Task) (Response, error)
}

// Response is the sealed sum of collaborator reply shapes: Text and
// *History.
type Response interface {
	isResponse()
}

// Text is a plain-text reply.
type Text string

func (Text) isResponse() {}

// ToolCall records one tool invocation made during a step.
type ToolCall struct {
	Tool   string `json:"tool"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Step is one model turn.
type Step struct {
	Reply string     `json:"reply"`
	Calls []ToolCall `json:"calls,omitempty"`
}

// History is the structured log of a tool-using run.
type History struct {
	Steps []Step `json:"steps"`

	// Final is the reply of the turn that ended the run without requesting
	// a tool. It is empty when the step budget ran out first.
	Final string `json:"final"`

	// Exhausted is true when the run stopped because the step budget was
	// used up.
	Exhausted bool `json:"exhausted,omitempty"`
}

func (*History) isResponse() {}

// String returns the final answer, or, when the run ended without one,
// every non-empty model reply separated by blank lines. Tool observations
// are not included; see Transcript.
func (h *History) String() string {
	if h == nil {
		return ""
	}
	if h.Final != "" {
		return h.Final
	}
	var parts []string
	for _, s := range h.Steps {
		if r := strings.TrimSpace(s.Reply); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Transcript renders every step including tool inputs and outcomes.
func (h *History) Transcript() string {
	if h == nil {
		return ""
	}
	var b strings.Builder
	for i, s := range h.Steps {
		fmt.Fprintf(&b, "## Step %d\n", i+1)
		if r := strings.TrimSpace(s.Reply); r != "" {
			b.WriteString(r)
			b.WriteString("\n")
		}
		for _, c := range s.Calls {
			if c.Err != "" {
				fmt.Fprintf(&b, "- %s(%s): error: %s\n", c.Tool, c.Input, c.Err)
				continue
			}
			fmt.Fprintf(&b, "- %s(%s): %d chars\n", c.Tool, c.Input, len(c.Output))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Normalize converts any Response into text. It never fails; a nil
// response yields "".
func Normalize(r Response) string {
	switch v := r.(type) {
	case nil:
		return ""
	case Text:
		return string(v)
	case *History:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
