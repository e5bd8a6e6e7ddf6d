// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is the relevance assigned when a response carries no
// recognizable score.
const DefaultScore = 0.5

var (
	scoreLabelRe = regexp.MustCompile(`(?i)relevance[_ ]score\s*[:=]\s*(\d+(?:\.\d+)?)`)
	decimalRe    = regexp.MustCompile(`\d+\.\d+`)

	keywordsRe  = regexp.MustCompile(`(?im)\bkeywords?:[ \t]*([^\n]*)`)
	keywordSep  = regexp.MustCompile(`[,;]`)
	citationsRe = regexp.MustCompile(`(?i)\b(?:citations|citation count)\s*:\s*([\d,]+)|\bcited by:?\s*([\d,]+)`)
)

// ParseScore looks for a labeled score ("RELEVANCE_SCORE: 0.82"), then for
// the first bare decimal. The result is clamped to [0, 1]. It reports false
// when neither is present.
func ParseScore(text string) (float64, bool) {
	var tok string
	if m := scoreLabelRe.FindStringSubmatch(text); m != nil {
		tok = m[1]
	} else {
		tok = decimalRe.FindString(text)
	}
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return clamp(v), true
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Keywords returns the entries of the first labeled keywords line, split
// on commas and semicolons. It returns nil when no label is present.
func Keywords(text string) []string {
	m := keywordsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, kw := range keywordSep.Split(m[1], -1) {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Citations returns the first labeled citation count. Thousands separators
// are accepted. A missing or unparseable count reports false.
func Citations(text string) (int, bool) {
	m := citationsRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	tok := m[1]
	if tok == "" {
		tok = m[2]
	}
	n, err := strconv.Atoi(strings.ReplaceAll(tok, ",", ""))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
