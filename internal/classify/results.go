// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Sink accumulates qualifying records in insertion order and persists them
// wholesale: every flush rewrites the results file so it always reflects
// the full qualifying set from the start of the deduplicated list. Per
// prd002-classification R4.4-R4.6.
type Sink struct {
	path    string
	columns []string
	results []types.ResultRecord
	seen    map[string]bool
}

// NewSink creates a sink writing to path with the filter's column layout.
func NewSink(path string, f Filter) *Sink {
	return &Sink{
		path:    path,
		columns: f.Columns(),
		seen:    make(map[string]bool),
	}
}

// LoadExisting seeds the sink from a results file left by a prior run, so
// a resumed run keeps earlier qualifying records and the at-least-once
// reprocessing window cannot duplicate rows. A missing file is not an
// error (R4.6).
func (s *Sink) LoadExisting() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening results %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("parsing results %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if len(rows[0]) != len(s.columns) {
		return fmt.Errorf("results %s: expected %d columns, found %d", s.path, len(s.columns), len(rows[0]))
	}

	for _, row := range rows[1:] {
		rec := types.ResultRecord{ID: row[0], Values: row[1:]}
		s.add(rec)
	}
	return nil
}

// Add appends a qualifying record. A record whose ID is already present
// (retained by a prior run and reprocessed after a crash) is ignored.
func (s *Sink) Add(rec types.ResultRecord) {
	s.add(rec)
}

func (s *Sink) add(rec types.ResultRecord) {
	if s.seen[rec.ID] {
		return
	}
	s.seen[rec.ID] = true
	s.results = append(s.results, rec)
}

// Len returns the number of accumulated qualifying records.
func (s *Sink) Len() int {
	return len(s.results)
}

// ReadResults reads a results file written by a Sink. It returns the
// tag labels from the header (every column after the leading id) and
// one ResultRecord per row.
func ReadResults(path string) ([]string, []types.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening results %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("results %s: empty file", path)
	}
	if len(rows[0]) < 2 || rows[0][0] != "id" {
		return nil, nil, fmt.Errorf("results %s: malformed header %v", path, rows[0])
	}

	labels := rows[0][1:]
	var results []types.ResultRecord
	for _, row := range rows[1:] {
		results = append(results, types.ResultRecord{ID: row[0], Values: row[1:]})
	}
	return labels, results, nil
}

// Flush rewrites the results file wholesale via a temporary file (R4.5).
func (s *Sink) Flush() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	w := csv.NewWriter(tmpFile)
	writeErr := w.Write(s.columns)
	for _, rec := range s.results {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(append([]string{rec.ID}, rec.Values...))
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}

	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing results: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
