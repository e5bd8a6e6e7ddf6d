// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished reviews. Each review is written as a
// papers JSON file and a review Markdown file in the output directory and
// indexed in a SQLite database under output/index/ so past reviews can be
// listed, searched, and shown again.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/literature-review/pkg/types"
)

const (
	indexDir         = "index"
	dbFile           = "reviews.db"
	defaultOutputDir = "output"
)

// Store writes review artifacts and maintains the review index.
type Store struct {
	db        *sql.DB
	outputDir string
	log       zerolog.Logger

	// fts is false when the SQLite build lacks the fts5 module; search
	// then falls back to LIKE matching.
	fts bool

	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the review index at <output_dir>/index/reviews.db
// and creates the schema if it does not exist.
func Open(cfg types.StoreConfig, log zerolog.Logger) (*Store, error) {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	dbDir := filepath.Join(outputDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, outputDir: outputDir, log: log, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			created_at TEXT NOT NULL,
			paper_count INTEGER NOT NULL,
			papers_file TEXT,
			review_file TEXT,
			review TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			review_id TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			url TEXT,
			year INTEGER,
			venue TEXT,
			citations INTEGER,
			keywords TEXT,
			full_text TEXT,
			relevance_score REAL,
			PRIMARY KEY (review_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reviews_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE reviews_fts USING fts5(topic, review, content=reviews, content_rowid=rowid)`,
		`CREATE TRIGGER reviews_ai AFTER INSERT ON reviews BEGIN
			INSERT INTO reviews_fts(rowid, topic, review) VALUES (new.rowid, new.topic, new.review);
		END`,
		`CREATE TRIGGER reviews_ad AFTER DELETE ON reviews BEGIN
			INSERT INTO reviews_fts(reviews_fts, rowid, topic, review) VALUES('delete', old.rowid, old.topic, old.review);
		END`,
	}
	if _, err := s.db.Exec(ftsStatements[0]); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			s.log.Debug().Err(err).Msg("fts5 unavailable, review search uses LIKE")
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}
	for _, stmt := range ftsStatements[1:] {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// Save writes the papers JSON and review Markdown files, then indexes the
// review. It returns the written paths under types.SavedPapersFile and
// types.SavedReviewFile and the new index ID under types.SavedReviewID.
// When indexing fails the written files are removed again.
func (s *Store) Save(ctx context.Context, topic string, papers []types.Paper, review string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	now := s.now()
	papersPath, reviewPath := s.artifactPaths(topic, now)

	if err := writePapers(papersPath, papers); err != nil {
		return nil, err
	}
	if err := writeReview(reviewPath, topic, review, now); err != nil {
		os.Remove(papersPath)
		return nil, err
	}

	id := uuid.NewString()
	rec := types.ReviewRecord{
		ID:         id,
		Topic:      topic,
		CreatedAt:  now.UTC(),
		PaperCount: len(papers),
		PapersFile: papersPath,
		ReviewFile: reviewPath,
		Review:     review,
		Papers:     papers,
	}
	if err := s.insert(ctx, rec); err != nil {
		os.Remove(papersPath)
		os.Remove(reviewPath)
		return nil, err
	}

	s.log.Debug().
		Str("review_id", id).
		Str("papers_file", papersPath).
		Str("review_file", reviewPath).
		Msg("review indexed")

	return map[string]string{
		types.SavedPapersFile: papersPath,
		types.SavedReviewFile: reviewPath,
		types.SavedReviewID:   id,
	}, nil
}

// artifactPaths names the two files for a review saved at t. A numeric
// suffix keeps two saves of the same topic within one second apart.
func (s *Store) artifactPaths(topic string, t time.Time) (papersPath, reviewPath string) {
	stem := SanitizeTopic(topic) + "_" + t.Format("20060102_150405")
	for n := 1; ; n++ {
		name := stem
		if n > 1 {
			name = fmt.Sprintf("%s_%d", stem, n)
		}
		papersPath = filepath.Join(s.outputDir, "papers_"+name+".json")
		reviewPath = filepath.Join(s.outputDir, "review_"+name+".md")
		if !exists(papersPath) && !exists(reviewPath) {
			return papersPath, reviewPath
		}
	}
}

func (s *Store) insert(ctx context.Context, rec types.ReviewRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, topic, created_at, paper_count, papers_file, review_file, review)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Topic, rec.CreatedAt.Format(time.RFC3339Nano), rec.PaperCount,
		rec.PapersFile, rec.ReviewFile, rec.Review,
	)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (review_id, position, title, authors, abstract, url, year, venue,
			citations, keywords, full_text, relevance_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range rec.Papers {
		authorsJSON, _ := json.Marshal(nonNil(p.Authors))
		keywordsJSON, _ := json.Marshal(nonNil(p.Keywords))
		_, err := stmt.ExecContext(ctx,
			rec.ID, i, p.Title, string(authorsJSON), p.Abstract, p.URL,
			p.Year, p.Venue, p.Citations, string(keywordsJSON), p.FullText,
			p.RelevanceScore,
		)
		if err != nil {
			return fmt.Errorf("inserting paper %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
