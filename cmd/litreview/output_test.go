// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/literature-review/internal/agent"
	"github.com/pdiddy/literature-review/internal/review"
	"github.com/pdiddy/literature-review/pkg/types"
)

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("  short \n", 10))
	assert.Equal(t, "ééé...", excerpt("éééé", 3))
}

func TestPrintSummary(t *testing.T) {
	res := &types.ReviewResult{
		Topic: "AI ethics",
		Papers: []types.Paper{
			{Title: "Model Cards", Year: types.IntPtr(2019), RelevanceScore: 0.93},
			{Title: "Datasheets", RelevanceScore: 0.81},
		},
		Review: "## Introduction\n\n" + strings.Repeat("word ", 200),
		Saved: map[string]string{
			types.SavedPapersFile: "output/papers_AI_ethics.json",
			types.SavedReviewID:   "1234",
		},
		Demo: true,
	}

	var buf bytes.Buffer
	printSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Literature review: AI ethics")
	assert.Contains(t, out, "demo mode")
	assert.Contains(t, out, "Relevant papers: 2")
	assert.Contains(t, out, "[0.93] Model Cards (2019)")
	assert.Contains(t, out, "[0.81] Datasheets\n")
	assert.Contains(t, out, "Review length: 202 words")
	assert.Contains(t, out, "output/papers_AI_ethics.json")
	assert.NotContains(t, out, types.SavedReviewFile)
	assert.Contains(t, out, "...")
}

func TestPrintSummary_PersistWarning(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &types.ReviewResult{Topic: "t", PersistError: "disk full"})
	assert.Contains(t, buf.String(), "Warning: results were not saved: disk full")
	assert.NotContains(t, buf.String(), "Saved:")
}

func TestPrintPapers(t *testing.T) {
	var buf bytes.Buffer
	body := "text"
	printPapers(&buf, []types.Paper{{
		Title:          "Model Cards",
		Authors:        []string{"Mitchell, M.", "Gebru, T."},
		Venue:          types.StringPtr("FAccT"),
		URL:            "https://arxiv.org/abs/1810.03993",
		Citations:      types.IntPtr(2100),
		FullText:       &body,
		RelevanceScore: 0.9,
	}})
	out := buf.String()
	assert.Contains(t, out, "1. Model Cards\n")
	assert.Contains(t, out, "Mitchell, M., Gebru, T.")
	assert.Contains(t, out, "relevance 0.90, 2100 citations, full text")

	buf.Reset()
	printPapers(&buf, nil)
	assert.Equal(t, "No papers.\n", buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, []types.ReviewRecord{{
		ID:         "0123456789abcdef",
		Topic:      strings.Repeat("long topic ", 10),
		CreatedAt:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		PaperCount: 4,
	}})
	out := buf.String()
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "1 reviews")

	buf.Reset()
	printHistory(&buf, nil)
	assert.Equal(t, "No reviews found.\n", buf.String())
}

func TestReviewFailure(t *testing.T) {
	overloaded := &review.StageError{
		Stage: review.StageFilter,
		Err:   &agent.APIError{StatusCode: 529, Type: "overloaded_error", Message: "Overloaded"},
	}
	err := reviewFailure(overloaded)
	assert.ErrorIs(t, err, overloaded)
	assert.Contains(t, err.Error(), "try again later")

	badKey := &review.StageError{Stage: review.StageSearch, Err: &agent.APIError{StatusCode: 401, Message: "invalid x-api-key"}}
	err = reviewFailure(badKey)
	assert.NotContains(t, err.Error(), "try again later")
	assert.Contains(t, err.Error(), "review failed: search stage")

	err = reviewFailure(errors.New("boom"))
	assert.EqualError(t, err, "review failed: boom")
}
