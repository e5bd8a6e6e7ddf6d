// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScore_WithDefault(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"labeled on last line", "The paper is closely related.\nRELEVANCE_SCORE: 0.82", 0.82},
		{"labeled amid prose", "Version 2.5 of the method... RELEVANCE_SCORE: 0.82 overall", 0.82},
		{"labeled lowercase with space", "relevance score = 0.9", 0.9},
		{"labeled integer", "RELEVANCE_SCORE: 1", 1.0},
		{"bare decimal fallback", "I would rate this 0.65 out of 1.", 0.65},
		{"no score", "Highly relevant, a must read.", DefaultScore},
		{"empty", "", DefaultScore},
		{"clamped high", "RELEVANCE_SCORE: 8.5", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScore(tt.text)
			if !ok {
				got = DefaultScore
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseScore_ReportsMissing(t *testing.T) {
	_, ok := ParseScore("no numbers here")
	assert.False(t, ok)

	v, ok := ParseScore("RELEVANCE_SCORE: 0.3")
	assert.True(t, ok)
	assert.InDelta(t, 0.3, v, 1e-9)
}

func TestKeywords(t *testing.T) {
	text := "Full text of the paper...\nKeywords: fairness, accountability; transparency ,\nCitations: 12"
	assert.Equal(t, []string{"fairness", "accountability", "transparency"}, Keywords(text))

	assert.Nil(t, Keywords("nothing labeled"))
	assert.Empty(t, Keywords("Keywords:"))
}

func TestCitations(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{"labeled", "Citations: 120", 120, true},
		{"thousands separator", "Citation count: 1,204", 1204, true},
		{"cited by without colon", "Cited by 57 articles", 57, true},
		{"lowercase", "citations: 3", 3, true},
		{"unparseable", "Citations: unknown", 0, false},
		{"only separators", "Citations: ,", 0, false},
		{"absent", "no count shown", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Citations(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
