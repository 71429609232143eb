// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists acquired papers in sqlite. It is the only
// component that mutates persisted paper state: the coordinator inserts,
// the enrichment engine fills summary fields, and the publish step flips
// the published flag, all through the contract methods here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-tracker/pkg/types"
)

// ErrDuplicate reports an insert whose (provider_id, source) key is
// already present. Benign during overlapping runs; the losing writer logs
// and moves on.
var ErrDuplicate = errors.New("paper already stored")

// ErrNotFound reports an update against a key that does not exist. This
// indicates a logic error upstream and should be loud.
var ErrNotFound = errors.New("paper not found")

const defaultDBPath = "data/papers.db"

// fetchedAtLayout is a fixed-width RFC3339 variant. Trailing fractional
// zeros are kept so the stored text collates in chronological order.
const fetchedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the papers sqlite database.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open opens or creates the papers database and its schema. The parent
// directory is created when missing.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
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
		`CREATE TABLE IF NOT EXISTS papers (
			provider_id TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			venue TEXT,
			abstract TEXT,
			url TEXT,
			pdf_url TEXT,
			citation_count INTEGER NOT NULL DEFAULT 0,
			summary TEXT,
			investment_commentary TEXT,
			processed INTEGER NOT NULL DEFAULT 0,
			published INTEGER NOT NULL DEFAULT 0,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (provider_id, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_processed ON papers(processed, fetched_at)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// paperColumns is the column order shared by every select.
var paperColumns = []string{
	"provider_id", "source", "title", "authors", "year", "venue", "abstract",
	"url", "pdf_url", "citation_count", "summary", "investment_commentary",
	"processed", "published", "fetched_at",
}

// Exists reports whether a paper with the given dedup key is stored.
func (s *Store) Exists(ctx context.Context, providerID string, source types.Source) (bool, error) {
	query, args, err := s.sb.
		Select("count(*)").
		From("papers").
		Where(sq.Eq{"provider_id": providerID, "source": string(source)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building exists query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new paper. FetchedAt is stamped at insert time when the
// record carries none. Returns ErrDuplicate when the dedup key is already
// present; existing data is left untouched.
func (s *Store) Insert(ctx context.Context, rec *types.PaperRecord) error {
	if rec.ProviderID == "" || rec.Source == "" {
		return fmt.Errorf("record is missing its dedup key")
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now().UTC()
	}

	authorsJSON, err := json.Marshal(rec.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}

	query, args, err := s.sb.
		Insert("papers").
		Columns(paperColumns...).
		Values(
			rec.ProviderID, string(rec.Source), rec.Title, string(authorsJSON),
			rec.Year, rec.Venue, rec.Abstract, rec.URL, rec.PDFURL,
			rec.CitationCount, rec.Summary, rec.InvestmentCommentary,
			rec.Processed, rec.Published,
			rec.FetchedAt.UTC().Format(fetchedAtLayout),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicate, rec.Source, rec.ProviderID)
		}
		return fmt.Errorf("inserting paper: %w", err)
	}
	return nil
}

// isDuplicateErr reports whether err is a primary-key or unique constraint
// violation. Other constraint failures (NOT NULL, CHECK) indicate bad data
// and must surface as hard errors, not as benign duplicates.
func isDuplicateErr(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// NextUnprocessed returns the oldest stored paper that has not been
// enriched yet, or nil when every paper is processed.
func (s *Store) NextUnprocessed(ctx context.Context) (*types.PaperRecord, error) {
	query, args, err := s.sb.
		Select(paperColumns...).
		From("papers").
		Where(sq.Eq{"processed": false}).
		OrderBy("fetched_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rec, err := scanPaper(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed papers: %w", err)
	}
	return rec, nil
}

// MarkEnriched sets both generated texts and the processed flag in one
// atomic update, preserving the both-or-neither invariant. Returns
// ErrNotFound when the key is absent.
func (s *Store) MarkEnriched(ctx context.Context, providerID string, source types.Source, summary, commentary string) error {
	query, args, err := s.sb.
		Update("papers").
		Set("summary", summary).
		Set("investment_commentary", commentary).
		Set("processed", true).
		Where(sq.Eq{"provider_id": providerID, "source": string(source)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	return s.execExpectingRow(ctx, query, args, providerID, source)
}

// MarkPublished flips the published flag. Reserved for the downstream
// export step; the acquisition and enrichment stages never call it.
func (s *Store) MarkPublished(ctx context.Context, providerID string, source types.Source) error {
	query, args, err := s.sb.
		Update("papers").
		Set("published", true).
		Where(sq.Eq{"provider_id": providerID, "source": string(source)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	return s.execExpectingRow(ctx, query, args, providerID, source)
}

func (s *Store) execExpectingRow(ctx context.Context, query string, args []any, providerID string, source types.Source) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating paper: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, source, providerID)
	}
	return nil
}

// Publishable returns processed papers not yet published, oldest first.
func (s *Store) Publishable(ctx context.Context) ([]types.PaperRecord, error) {
	return s.list(ctx, sq.Eq{"processed": true, "published": false})
}

// List returns every stored paper, oldest first.
func (s *Store) List(ctx context.Context) ([]types.PaperRecord, error) {
	return s.list(ctx, nil)
}

func (s *Store) list(ctx context.Context, where any) ([]types.PaperRecord, error) {
	builder := s.sb.Select(paperColumns...).From("papers").OrderBy("fetched_at ASC")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var records []types.PaperRecord
	for rows.Next() {
		rec, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}
	return records, nil
}

// CountUnprocessed returns the number of papers awaiting enrichment.
func (s *Store) CountUnprocessed(ctx context.Context) (int, error) {
	return s.count(ctx, sq.Eq{"processed": false})
}

// CountAll returns the total number of stored papers.
func (s *Store) CountAll(ctx context.Context) (int, error) {
	return s.count(ctx, nil)
}

func (s *Store) count(ctx context.Context, where any) (int, error) {
	builder := s.sb.Select("count(*)").From("papers")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*types.PaperRecord, error) {
	var (
		rec         types.PaperRecord
		source      string
		authorsJSON sql.NullString
		venue       sql.NullString
		abstract    sql.NullString
		pageURL     sql.NullString
		pdfURL      sql.NullString
		summary     sql.NullString
		commentary  sql.NullString
		fetchedAt   string
	)
	err := row.Scan(
		&rec.ProviderID, &source, &rec.Title, &authorsJSON, &rec.Year, &venue,
		&abstract, &pageURL, &pdfURL, &rec.CitationCount, &summary,
		&commentary, &rec.Processed, &rec.Published, &fetchedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Source = types.Source(source)
	rec.Venue = venue.String
	rec.Abstract = abstract.String
	rec.URL = pageURL.String
	rec.PDFURL = pdfURL.String
	rec.Summary = summary.String
	rec.InvestmentCommentary = commentary.String

	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &rec.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding fetched_at: %w", err)
	}
	rec.FetchedAt = t
	return &rec, nil
}
