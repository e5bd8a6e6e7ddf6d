// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared by the review pipeline, the
// store, and the CLI.
package types

// UnknownTitle is the placeholder title given to a paper whose title could
// not be recovered.
const UnknownTitle = "Unknown Title"

// Paper is the record threaded through every review stage. The search stage
// creates it with bibliographic fields, the content stage adds full text,
// keywords, and citations, and the filter stage stamps the relevance score.
//
// Optional fields are pointers so that "absent" is distinguishable from a
// zero value; they serialize as null.
type Paper struct {
	// Title is never empty once the search stage has built the record.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order, each entry trimmed.
	Authors []string `json:"authors" yaml:"authors"`

	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the only key used for content retrieval; empty means the
	// content stage skips the paper.
	URL string `json:"url" yaml:"url"`

	// Year is set only when a 19xx or 20xx year was recovered.
	Year *int `json:"year" yaml:"year"`

	Venue *string `json:"venue" yaml:"venue"`

	// Citations is set only by the content stage.
	Citations *int `json:"citations" yaml:"citations"`

	// Keywords is set only by the content stage.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// FullText stays nil until the content stage retrieves the paper.
	FullText *string `json:"full_text" yaml:"full_text"`

	// RelevanceScore is 0 until the filter stage scores the paper, then in [0, 1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// HasFullText reports whether the content stage stored non-empty text.
func (p *Paper) HasFullText() bool {
	return p.FullText != nil && *p.FullText != ""
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
