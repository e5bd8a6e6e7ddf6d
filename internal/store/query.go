// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-review/pkg/types"
)

const defaultListLimit = 20

// ErrNotFound is returned by Get when no review matches.
var ErrNotFound = errors.New("review not found")

// ListOptions selects reviews from the index.
type ListOptions struct {
	// Query is matched against topic and review text. Every whitespace
	// separated term must appear. Empty lists every review.
	Query string

	// Limit caps the result count. Zero uses 20.
	Limit int
}

// List returns index rows newest first, or ranked by match quality when
// opts.Query is set. Review text and papers are not loaded.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.ReviewRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		query string
		args  []any
	)
	switch {
	case strings.TrimSpace(opts.Query) != "" && s.fts:
		query = `SELECT r.id, r.topic, r.created_at, r.paper_count, r.papers_file, r.review_file
			FROM reviews_fts
			JOIN reviews r ON r.rowid = reviews_fts.rowid
			WHERE reviews_fts MATCH ?
			ORDER BY reviews_fts.rank
			LIMIT ?`
		args = []any{ftsQuery(opts.Query), limit}
	case strings.TrimSpace(opts.Query) != "":
		where, likeArgs := likeQuery(opts.Query)
		query = `SELECT id, topic, created_at, paper_count, papers_file, review_file
			FROM reviews
			WHERE ` + where + `
			ORDER BY created_at DESC
			LIMIT ?`
		args = append(likeArgs, limit)
	default:
		query = `SELECT id, topic, created_at, paper_count, papers_file, review_file
			FROM reviews
			ORDER BY created_at DESC
			LIMIT ?`
		args = []any{limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var out []types.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ftsQuery quotes every term of q as an FTS5 string, so punctuation such as
// "machine-learning" is matched as text rather than parsed as query syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeQuery builds the LIKE condition used without fts5: every term of q
// must occur in the topic or the review text.
func likeQuery(q string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, t := range strings.Fields(q) {
		pattern := "%" + likeEscaper.Replace(t) + "%"
		conds = append(conds, `(topic LIKE ? ESCAPE '\' OR review LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	return strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (types.ReviewRecord, error) {
	var (
		rec                    types.ReviewRecord
		created                string
		papersFile, reviewFile sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Topic, &created, &rec.PaperCount, &papersFile, &reviewFile); err != nil {
		return rec, fmt.Errorf("scanning review: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return rec, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	rec.CreatedAt = t
	rec.PapersFile = papersFile.String
	rec.ReviewFile = reviewFile.String
	return rec, nil
}

// Get loads one review with its text and papers. id may be a unique
// prefix of the full ID.
func (s *Store) Get(ctx context.Context, id string) (*types.ReviewRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, created_at, paper_count, papers_file, review_file
		 FROM reviews WHERE substr(id, 1, length(?)) = ? LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("looking up review: %w", err)
	}
	var matches []types.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("review ID prefix %q is ambiguous", id)
	}
	rec := matches[0]

	var review sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT review FROM reviews WHERE id = ?`, rec.ID).Scan(&review); err != nil {
		return nil, fmt.Errorf("loading review text: %w", err)
	}
	rec.Review = review.String

	rec.Papers, err = s.papers(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) papers(ctx context.Context, reviewID string) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, abstract, url, year, venue, citations, keywords, full_text, relevance_score
		 FROM papers WHERE review_id = ? ORDER BY position`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	papers := []types.Paper{}
	for rows.Next() {
		var (
			p                     types.Paper
			authorsJSON, keywords sql.NullString
			abstract, url         sql.NullString
			year, citations       sql.NullInt64
			venue, fullText       sql.NullString
		)
		if err := rows.Scan(&p.Title, &authorsJSON, &abstract, &url, &year, &venue,
			&citations, &keywords, &fullText, &p.RelevanceScore); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Abstract = abstract.String
		p.URL = url.String
		if authorsJSON.Valid {
			if err := json.Unmarshal([]byte(authorsJSON.String), &p.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %q: %w", p.Title, err)
			}
		}
		if keywords.Valid {
			if err := json.Unmarshal([]byte(keywords.String), &p.Keywords); err != nil {
				return nil, fmt.Errorf("decoding keywords of %q: %w", p.Title, err)
			}
		}
		p.Authors = nonNil(p.Authors)
		p.Keywords = nonNil(p.Keywords)
		if year.Valid {
			p.Year = types.IntPtr(int(year.Int64))
		}
		if citations.Valid {
			p.Citations = types.IntPtr(int(citations.Int64))
		}
		if venue.Valid {
			p.Venue = types.StringPtr(venue.String)
		}
		if fullText.Valid {
			p.FullText = types.StringPtr(fullText.String)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// ExportYAML writes the review named by id, papers included, as YAML.
func (s *Store) ExportYAML(ctx context.Context, id string, w io.Writer) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
