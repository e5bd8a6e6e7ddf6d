// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/literature-review/pkg/types"
)

const maxTopicStem = 50

// SanitizeTopic turns a topic into a file name stem: every character that
// is not a letter or digit becomes an underscore, and the result is cut to
// 50 characters.
func SanitizeTopic(topic string) string {
	runes := []rune(topic)
	if len(runes) > maxTopicStem {
		runes = runes[:maxTopicStem]
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			runes[i] = '_'
		}
	}
	return string(runes)
}

func writePapers(path string, papers []types.Paper) error {
	if papers == nil {
		papers = []types.Paper{}
	}
	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling papers: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReviewDocument renders the Markdown file body for a review generated at t.
func ReviewDocument(topic, review string, t time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Literature Review: %s\n\n", topic)
	fmt.Fprintf(&b, "*Generated on: %s*\n\n", t.Format("2006-01-02 15:04:05"))
	b.WriteString(review)
	return b.String()
}

func writeReview(path, topic, review string, t time.Time) error {
	return writeFileAtomic(path, []byte(ReviewDocument(topic, review, t)))
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// LoadPapers reads a papers JSON file written by Save. Records without a
// title get types.UnknownTitle and missing lists become empty. A missing
// file is an error.
func LoadPapers(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading papers: %w", err)
	}
	var papers []types.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing papers %s: %w", path, err)
	}
	for i := range papers {
		p := &papers[i]
		if strings.TrimSpace(p.Title) == "" {
			p.Title = types.UnknownTitle
		}
		p.Authors = nonNil(p.Authors)
		p.Keywords = nonNil(p.Keywords)
	}
	return papers, nil
}
