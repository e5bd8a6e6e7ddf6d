// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract recovers structured paper metadata from free-form model
// output. Extraction runs as a cascade of three tiers: a fenced JSON block,
// a bare JSON array embedded in prose, and a line-oriented manual scan that
// never fails. Each tier runs only when the previous one yields nothing.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Tier identifies which stage of the cascade produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierFenced
	TierBracketed
	TierManual
)

// String returns the tier label used in logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierFenced:
		return "fenced"
	case TierBracketed:
		return "bracketed"
	case TierManual:
		return "manual"
	default:
		return "none"
	}
}

// Candidate keys.
const (
	KeyTitle    = "title"
	KeyAuthors  = "authors"
	KeyAbstract = "abstract"
	KeyURL      = "url"
	KeyYear     = "year"
	KeyVenue    = "venue"
)

// maxGuessedTitle bounds a title guessed from the first line of an entry.
// Longer lines are prose, not titles.
const maxGuessedTitle = 200

var (
	fencedRe    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bracketedRe = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

	// entrySplitRe separates manual entries at numbered-list markers
	// ("1. ", "2) ") or blank lines.
	entrySplitRe = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+|\n[ \t]*\n+`)

	// Labels may be wrapped in Markdown bold ("**Title:**"). A label left
	// alone on its line takes its value from the next line.
	titleRe    = regexp.MustCompile(`(?im)\btitle\**:\**[ \t]*(?:\n[ \t]*)?([^\n]*)`)
	authorsRe  = regexp.MustCompile(`(?im)\bauthors?\**:\**[ \t]*(?:\n[ \t]*)?([^\n]*)`)
	authorSep  = regexp.MustCompile(`,|;|\band\b`)
	abstractRe = regexp.MustCompile(`(?s)(?i:\babstract)\**:\**\s*(.*?)(?:\n\s*\n|\n[A-Z*]|\z)`)
	urlLabelRe = regexp.MustCompile(`(?i)\b(?:url|link)\**:\**\s*(https?://\S+)`)
	urlBareRe  = regexp.MustCompile(`https?://\S+`)
	yearLabel  = regexp.MustCompile(`(?i)\b(?:year|published)\**:\**\s*(\d{4})\b`)
	yearBareRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	venueRe    = regexp.MustCompile(`(?im)\b(?:venue|journal|conference|published in)\**:\**[ \t]*([^\n]*)`)

	// fieldLabelRe recognizes a line that starts with another field label.
	fieldLabelRe = regexp.MustCompile(`(?i)^\**(?:title|authors?|abstract|url|link|year|published(?: in)?|venue|journal|conference|keywords|citations)\**:`)
)

// ExtractWithTier runs the cascade over text and returns the recovered
// candidates with the tier that produced them. The first tier that parses
// settles the result, even when it parses to an empty list; the manual
// tier runs only when neither structured tier parses.
func ExtractWithTier(text string) ([]Candidate, Tier) {
	if c, ok := fromFenced(text); ok {
		return c, TierFenced
	}
	if c, ok := fromBracketed(text); ok {
		return c, TierBracketed
	}
	return fromManual(text), TierManual
}

// fromFenced parses the first fenced block whose body is a JSON array of
// objects.
func fromFenced(text string) ([]Candidate, bool) {
	for _, m := range fencedRe.FindAllStringSubmatch(text, -1) {
		if c, ok := parseList(m[1]); ok {
			return c, true
		}
	}
	return nil, false
}

// fromBracketed parses the widest "[{ ... }]" span in text.
func fromBracketed(text string) ([]Candidate, bool) {
	span := bracketedRe.FindString(text)
	if span == "" {
		return nil, false
	}
	return parseList(span)
}

// parseList decodes s as a JSON array of objects. A payload that is valid
// JSON but not an array of objects is rejected.
func parseList(s string) ([]Candidate, bool) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	out := make([]Candidate, 0, len(raw))
	for _, obj := range raw {
		if obj == nil {
			continue
		}
		out = append(out, Candidate(obj))
	}
	return out, true
}

// fromManual scans each entry for labeled fields.
func fromManual(text string) []Candidate {
	var out []Candidate
	for _, entry := range entrySplitRe.Split(text, -1) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if c, ok := parseEntry(entry); ok {
			out = append(out, c)
		}
	}
	return out
}

// parseEntry recovers whichever fields an entry carries. It returns false
// when no usable title can be found.
func parseEntry(entry string) (Candidate, bool) {
	title, labeled := labelValue(titleRe, entry)
	if !labeled {
		first, _, _ := strings.Cut(strings.TrimLeft(entry, "\n"), "\n")
		title = trimMarkup(first)
		if len(title) > maxGuessedTitle {
			return nil, false
		}
	}
	if title == "" {
		return nil, false
	}

	c := Candidate{KeyTitle: title}

	if v, ok := labelValue(authorsRe, entry); ok {
		if authors := SplitAuthors(v); len(authors) > 0 {
			c[KeyAuthors] = authors
		}
	}
	if m := abstractRe.FindStringSubmatch(entry); m != nil {
		if abs := strings.TrimSpace(m[1]); abs != "" {
			c[KeyAbstract] = abs
		}
	}
	if url := findURL(entry); url != "" {
		c[KeyURL] = url
	}
	if year, ok := findYear(entry); ok {
		c[KeyYear] = year
	}
	if m := venueRe.FindStringSubmatch(entry); m != nil {
		if venue := trimMarkup(m[1]); venue != "" {
			c[KeyVenue] = venue
		}
	}
	return c, true
}

// labelValue returns the value captured by a label pattern with bold
// markers removed. A value taken from the line after the label is dropped
// when that line is itself another field.
func labelValue(re *regexp.Regexp, entry string) (string, bool) {
	m := re.FindStringSubmatch(entry)
	if m == nil {
		return "", false
	}
	v := trimMarkup(m[1])
	if strings.Contains(m[0], "\n") && fieldLabelRe.MatchString(strings.TrimSpace(m[1])) {
		v = ""
	}
	return v, true
}

func trimMarkup(s string) string {
	return strings.Trim(s, " \t*")
}

// SplitAuthors splits an author line on commas, semicolons, and the word
// "and", dropping empty names.
func SplitAuthors(s string) []string {
	var out []string
	for _, part := range authorSep.Split(s, -1) {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func findURL(entry string) string {
	var url string
	if m := urlLabelRe.FindStringSubmatch(entry); m != nil {
		url = m[1]
	} else {
		url = urlBareRe.FindString(entry)
	}
	return strings.TrimRight(url, `.,;:)]}>"'`)
}

// findYear prefers a labeled year and falls back to the first bare 19xx or
// 20xx token.
func findYear(entry string) (int, bool) {
	if m := yearLabel.FindStringSubmatch(entry); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && PlausibleYear(y) {
			return y, true
		}
	}
	if tok := yearBareRe.FindString(entry); tok != "" {
		if y, err := strconv.Atoi(tok); err == nil {
			return y, true
		}
	}
	return 0, false
}

// PlausibleYear reports whether y falls in 1900..2099.
func PlausibleYear(y int) bool {
	return y >= 1900 && y <= 2099
}
