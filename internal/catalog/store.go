// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists harvested records and their classification
// tags in a queryable SQLite index. Implements: prd003-catalog (R1-R4);
//
//	docs/ARCHITECTURE § Catalog.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

const dbFile = "catalog.db"

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	catalogDir string
	maxResults int
}

// NewStore opens or creates the catalog database at
// catalogDir/catalog.db. It creates the schema if it does not exist
// (R1.1, R1.2).
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CatalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		catalogDir: cfg.CatalogDir,
		maxResults: maxResults,
	}

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
			id TEXT PRIMARY KEY,
			published TEXT,
			title TEXT,
			summary TEXT,
			authors TEXT,
			comment TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			paper_id TEXT NOT NULL REFERENCES papers(id),
			label TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (paper_id, label)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_label ON tags(label, value)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, summary, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, summary) VALUES (new.rowid, new.title, new.summary);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, summary) VALUES('delete', old.rowid, old.title, old.summary);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, summary) VALUES('delete', old.rowid, old.title, old.summary);
				INSERT INTO papers_fts(rowid, title, summary) VALUES (new.rowid, new.title, new.summary);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog ingestion run (R2.4).
type IngestSummary struct {
	Ingested int
	Updated  int
	Tagged   int
	Failed   int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Failed
}

// Ingest upserts harvested records and attaches classification tags
// (R2.1-R2.4). labels names the tag columns for each result's values,
// in order. Each record is committed in its own transaction so a
// failure leaves earlier records indexed.
func (s *Store) Ingest(ctx context.Context, recs []types.Record, labels []string, results []types.ResultRecord, w io.Writer) (IngestSummary, error) {
	tagsByID := make(map[string][]string, len(results))
	for _, r := range results {
		tagsByID[r.ID] = r.Values
	}

	var summary IngestSummary
	for _, rec := range recs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if rec.ID == "" {
			fmt.Fprintf(w, "failed  (no id): %s\n", rec.Title)
			summary.Failed++
			continue
		}

		updated, tagged, err := s.ingestRecord(ctx, rec, labels, tagsByID[rec.ID])
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.ID, err)
			summary.Failed++
			continue
		}

		if updated {
			fmt.Fprintf(w, "updated  %s\n", rec.ID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested %s\n", rec.ID)
			summary.Ingested++
		}
		if tagged {
			summary.Tagged++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, tagged: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Tagged, summary.Failed)

	return summary, nil
}

func (s *Store) ingestRecord(ctx context.Context, rec types.Record, labels, values []string) (updated, tagged bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM papers WHERE id = ?`, rec.ID,
	).Scan(&existing); err != nil {
		return false, false, fmt.Errorf("checking paper: %w", err)
	}
	updated = existing > 0

	authorsJSON, _ := json.Marshal(rec.Authors)
	publishedStr := ""
	if !rec.Published.IsZero() {
		publishedStr = rec.Published.Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, published, title, summary, authors, comment)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			published=excluded.published, title=excluded.title,
			summary=excluded.summary, authors=excluded.authors,
			comment=excluded.comment`,
		rec.ID, publishedStr, rec.Title, rec.Summary, string(authorsJSON), rec.Comment,
	)
	if err != nil {
		return false, false, fmt.Errorf("upserting paper: %w", err)
	}

	if len(values) > 0 {
		if len(values) != len(labels) {
			return false, false, fmt.Errorf("result for %s has %d values for %d labels", rec.ID, len(values), len(labels))
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO tags (paper_id, label, value) VALUES (?, ?, ?)
			 ON CONFLICT(paper_id, label) DO UPDATE SET value=excluded.value`)
		if err != nil {
			return false, false, fmt.Errorf("preparing tag insert: %w", err)
		}
		defer stmt.Close()

		for i, label := range labels {
			if _, err := stmt.ExecContext(ctx, rec.ID, label, values[i]); err != nil {
				return false, false, fmt.Errorf("inserting tag %s: %w", label, err)
			}
		}
		tagged = true
	}

	return updated, tagged, tx.Commit()
}
