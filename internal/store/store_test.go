// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-review/internal/review"
	"github.com/pdiddy/literature-review/pkg/types"
)

var _ review.Persister = (*Store)(nil)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{OutputDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	s.now = func() time.Time { return fixedTime }
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePapers() []types.Paper {
	body := "Full body."
	return []types.Paper{
		{
			Title:          "Model Cards for Model Reporting",
			Authors:        []string{"Mitchell, M.", "Gebru, T."},
			Abstract:       "Documentation for trained models.",
			URL:            "https://arxiv.org/abs/1810.03993",
			Year:           types.IntPtr(2019),
			Venue:          types.StringPtr("FAccT"),
			Citations:      types.IntPtr(2100),
			Keywords:       []string{"documentation", "fairness"},
			FullText:       &body,
			RelevanceScore: 0.93,
		},
		{
			Title:          "Datasheets for Datasets",
			Abstract:       "Documentation for datasets.",
			RelevanceScore: 0.81,
		},
	}
}

func TestSanitizeTopic(t *testing.T) {
	tests := map[string]string{
		"AI ethics":                  "AI_ethics",
		"graph/neural: networks?":    "graph_neural__networks_",
		"élan vital":                 "élan_vital",
		strings.Repeat("abcde ", 20): strings.Repeat("abcde_", 8) + "ab",
	}
	for in, want := range tests {
		got := SanitizeTopic(in)
		assert.Equal(t, want, got, in)
		assert.LessOrEqual(t, len([]rune(got)), 50)
	}
}

func TestSave_WritesArtifactsAndIndex(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "AI ethics", samplePapers(), "## Introduction\nBody.")
	require.NoError(t, err)

	papersPath := saved[types.SavedPapersFile]
	reviewPath := saved[types.SavedReviewFile]
	assert.Equal(t, filepath.Join(s.outputDir, "papers_AI_ethics_20250314_092653.json"), papersPath)
	assert.Equal(t, filepath.Join(s.outputDir, "review_AI_ethics_20250314_092653.md"), reviewPath)
	assert.NotEmpty(t, saved[types.SavedReviewID])

	md, err := os.ReadFile(reviewPath)
	require.NoError(t, err)
	assert.Equal(t,
		"# Literature Review: AI ethics\n\n*Generated on: 2025-03-14 09:26:53*\n\n## Introduction\nBody.",
		string(md))

	raw, err := os.ReadFile(papersPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"title\": \"Model Cards for Model Reporting\"")
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Len(t, generic, 2)
	assert.Nil(t, generic[1]["year"], "absent optional fields are null")
	assert.Contains(t, generic[1], "full_text")

	entries, err := os.ReadDir(s.outputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}

	rec, err := s.Get(ctx, saved[types.SavedReviewID])
	require.NoError(t, err)
	assert.Equal(t, "AI ethics", rec.Topic)
	assert.Equal(t, fixedTime, rec.CreatedAt)
	assert.Equal(t, 2, rec.PaperCount)
	assert.Equal(t, "## Introduction\nBody.", rec.Review)
	assert.Equal(t, papersPath, rec.PapersFile)

	want := samplePapers()
	want[1].Authors = []string{}
	want[1].Keywords = []string{}
	assert.Equal(t, want, rec.Papers)
}

func TestSave_SameSecondDoesNotOverwrite(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "topic", nil, "one")
	require.NoError(t, err)
	second, err := s.Save(ctx, "topic", nil, "two")
	require.NoError(t, err)

	assert.NotEqual(t, first[types.SavedReviewFile], second[types.SavedReviewFile])
	assert.True(t, strings.HasSuffix(second[types.SavedReviewFile], "_2.md"))

	raw, err := os.ReadFile(first[types.SavedPapersFile])
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSave_CanceledContext(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "topic", samplePapers(), "text")
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(s.outputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "unexpected artifact %s", e.Name())
	}
}

func TestSave_UnwritableOutputDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{OutputDir: dir}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	// Point the store at a path whose parent is a regular file.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s.outputDir = filepath.Join(blocker, "out")

	_, err = s.Save(context.Background(), "topic", nil, "text")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := fixedTime
	for i, topic := range []string{"graph neural networks", "AI ethics", "protein folding"} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		_, err := s.Save(ctx, topic, samplePapers()[:1], "Review about "+topic+".")
		require.NoError(t, err)
	}

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "protein folding", all[0].Topic, "newest first")
	assert.Equal(t, "graph neural networks", all[2].Topic)
	assert.Empty(t, all[0].Review)
	assert.Nil(t, all[0].Papers)
	assert.Equal(t, 1, all[0].PaperCount)

	limited, err := s.List(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	found, err := s.List(ctx, ListOptions{Query: "ethics"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "AI ethics", found[0].Topic)

	none, err := s.List(ctx, ListOptions{Query: "astronomy"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestList_QueryTermsAndPunctuation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, topic := range []string{"machine-learning fairness", "AI ethics"} {
		at := fixedTime.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		_, err := s.Save(ctx, topic, nil, "Review about "+topic+".")
		require.NoError(t, err)
	}

	for _, q := range []string{"machine-learning", "fairness machine-learning", "ethics AI"} {
		got, err := s.List(ctx, ListOptions{Query: q})
		require.NoError(t, err, q)
		assert.Len(t, got, 1, q)
	}

	_, err := s.List(ctx, ListOptions{Query: `ethics"`})
	require.NoError(t, err)

	for _, q := range []string{"50%", "AI astronomy"} {
		got, err := s.List(ctx, ListOptions{Query: q})
		require.NoError(t, err, q)
		assert.Empty(t, got, q)
	}
}

func TestGet_PrefixAndNotFound(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "topic", samplePapers(), "text")
	require.NoError(t, err)
	id := saved[types.SavedReviewID]

	rec, err := s.Get(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	_, err = s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, pattern := range []string{"%", "_", id[:4] + "%"} {
		_, err = s.Get(ctx, pattern)
		assert.ErrorIs(t, err, ErrNotFound, pattern)
	}
}

func TestGet_CorruptPaperRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "topic", samplePapers(), "text")
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `UPDATE papers SET authors = 'not json' WHERE position = 0`)
	require.NoError(t, err)

	_, err = s.Get(ctx, saved[types.SavedReviewID])
	assert.ErrorContains(t, err, "decoding authors")
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "AI ethics", samplePapers(), "text")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, saved[types.SavedReviewID], &buf))

	var got types.ReviewRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "AI ethics", got.Topic)
	require.Len(t, got.Papers, 2)
	assert.Equal(t, "Model Cards for Model Reporting", got.Papers[0].Title)
	assert.Equal(t, 2019, *got.Papers[0].Year)
}

func TestOpen_ReopensExistingIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{OutputDir: dir}, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "topic", nil, "text")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.StoreConfig{OutputDir: dir}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	all, err := s.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.FileExists(t, filepath.Join(dir, indexDir, dbFile))
}

func TestLoadPapers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "papers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"title": "Kept", "authors": ["A"], "year": 2020, "relevance_score": 0.9},
  {"abstract": "No title here", "venue": null}
]`), 0o644))

	papers, err := LoadPapers(path)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "Kept", papers[0].Title)
	assert.Equal(t, 2020, *papers[0].Year)
	assert.Equal(t, 0.9, papers[0].RelevanceScore)
	assert.Equal(t, types.UnknownTitle, papers[1].Title)
	assert.Equal(t, []string{}, papers[1].Authors)
	assert.Equal(t, []string{}, papers[1].Keywords)
	assert.Nil(t, papers[1].Venue)
	assert.Nil(t, papers[1].FullText)
}

func TestLoadPapers_RoundTripsSave(t *testing.T) {
	s := testStore(t)
	saved, err := s.Save(context.Background(), "t", samplePapers(), "x")
	require.NoError(t, err)

	papers, err := LoadPapers(saved[types.SavedPapersFile])
	require.NoError(t, err)
	assert.Equal(t, samplePapers()[0], papers[0])
}

func TestLoadPapers_Errors(t *testing.T) {
	_, err := LoadPapers(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadPapers(bad)
	assert.ErrorContains(t, err, "parsing papers")
}
