// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Keys of ReviewResult.Saved.
const (
	SavedPapersFile = "papers_file"
	SavedReviewFile = "review_file"
	SavedReviewID   = "review_id"
)

// ReviewResult is the bundle returned to the caller after one review run.
type ReviewResult struct {
	Topic  string  `json:"topic" yaml:"topic"`
	Papers []Paper `json:"papers" yaml:"papers"`
	Review string  `json:"review" yaml:"review"`

	// Saved maps logical artifact names to their storage locations. It is nil
	// when persistence was not requested or failed.
	Saved map[string]string `json:"saved,omitempty" yaml:"saved,omitempty"`

	// PersistError describes a persistence failure. The papers and review
	// are still valid when it is set.
	PersistError string `json:"persist_error,omitempty" yaml:"persist_error,omitempty"`

	// Demo is true when the result came from the demo runner.
	Demo bool `json:"demo,omitempty" yaml:"demo,omitempty"`
}

// ReviewRecord is one row of the review index.
type ReviewRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Topic      string    `json:"topic" yaml:"topic"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	PaperCount int       `json:"paper_count" yaml:"paper_count"`
	PapersFile string    `json:"papers_file" yaml:"papers_file"`
	ReviewFile string    `json:"review_file" yaml:"review_file"`
	Review     string    `json:"review,omitempty" yaml:"review,omitempty"`
	Papers     []Paper   `json:"papers,omitempty" yaml:"papers,omitempty"`
}
