// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads and writes bibliographic record sets as CSV files.
// Implements: prd001-harvest (R4.1-R4.3).
package records

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// header is the fixed column layout of a record-set CSV.
var header = []string{"id", "published", "title", "summary", "authors", "comment"}

// authorSep joins the authors list into a single CSV cell.
const authorSep = ", "

// WriteCSV writes records to path, creating parent directories as needed.
// The file is rewritten wholesale via a temporary file so readers never
// observe a partial write (R4.2).
func WriteCSV(path string, recs []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	w := csv.NewWriter(tmpFile)
	writeErr := w.Write(header)
	for _, r := range recs {
		if writeErr != nil {
			break
		}
		published := ""
		if !r.Published.IsZero() {
			published = r.Published.Format(time.RFC3339)
		}
		writeErr = w.Write([]string{
			r.ID,
			published,
			r.Title,
			r.Summary,
			strings.Join(r.Authors, authorSep),
			r.Comment,
		})
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}

	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing records: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadCSV reads a record-set CSV written by WriteCSV. A header missing any
// expected column is a schema error and aborts the read (R4.3).
func ReadCSV(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record set %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing record set %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("record set %s is empty", path)
	}

	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("record set %s: %w", path, err)
	}

	recs := make([]types.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := types.Record{
			ID:      row[cols["id"]],
			Title:   row[cols["title"]],
			Summary: row[cols["summary"]],
			Comment: row[cols["comment"]],
		}
		if s := row[cols["published"]]; s != "" {
			if t, parseErr := time.Parse(time.RFC3339, s); parseErr == nil {
				rec.Published = t
			}
		}
		if s := row[cols["authors"]]; s != "" {
			rec.Authors = strings.Split(s, authorSep)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// columnIndex maps header names to positions and rejects a header that is
// missing any expected column.
func columnIndex(row []string) (map[string]int, error) {
	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, want := range header {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing expected column %q", want)
		}
	}
	return cols, nil
}
