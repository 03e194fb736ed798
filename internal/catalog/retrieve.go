// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// QueryOptions holds parameters for catalog queries (R3).
type QueryOptions struct {
	// Query is the FTS5 full-text search string over titles and
	// summaries (R3.1).
	Query string

	// Label filters to papers carrying a tag with this label (R3.2).
	Label string

	// Value restricts the Label filter to an exact tag value. Ignored
	// when Label is empty (R3.3).
	Value string

	// MaxResults limits result count. Zero uses the store default (R3.4).
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Label == ""
}

// QueryResult is a cataloged record with its classification tags (R3.5).
type QueryResult struct {
	types.Record `yaml:",inline"`
	Tags         types.TagMap `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Retrieve queries the catalog with optional full-text search and tag
// filters (R3). Results are ranked by relevance for full-text queries
// or sorted by publication date, newest first, otherwise (R3.6).
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.published, p.title, p.summary, p.authors, p.comment
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.id, p.published, p.title, p.summary, p.authors, p.comment
			FROM papers p
			WHERE 1=1`)
	}

	if opts.Label != "" {
		if opts.Value != "" {
			qb.WriteString(` AND EXISTS (SELECT 1 FROM tags t WHERE t.paper_id = p.id AND t.label = ? AND t.value = ?)`)
			args = append(args, opts.Label, opts.Value)
		} else {
			qb.WriteString(` AND EXISTS (SELECT 1 FROM tags t WHERE t.paper_id = p.id AND t.label = ?)`)
			args = append(args, opts.Label)
		}
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.published DESC, p.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			published   sql.NullString
			authorsJSON sql.NullString
		)
		if err := rows.Scan(
			&qr.ID, &published, &qr.Title, &qr.Summary, &authorsJSON, &qr.Comment,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if published.Valid && published.String != "" {
			if t, err := time.Parse(time.RFC3339, published.String); err == nil {
				qr.Published = t
			}
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &qr.Authors)
		}

		results = append(results, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		tags, err := s.paperTags(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Tags = tags
	}

	return results, nil
}

// paperTags loads the tag map for one paper. Returns nil when the
// paper carries no tags.
func (s *Store) paperTags(ctx context.Context, paperID string) (types.TagMap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, value FROM tags WHERE paper_id = ? ORDER BY label`, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for %s: %w", paperID, err)
	}
	defer rows.Close()

	var tags types.TagMap
	for rows.Next() {
		var label, value string
		if err := rows.Scan(&label, &value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		if tags == nil {
			tags = types.TagMap{}
		}
		tags[label] = value
	}
	return tags, rows.Err()
}
