// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds a cataloged record with its tags for export (R4.2).
type ExportEntry struct {
	ID        string            `json:"id" yaml:"id"`
	Published string            `json:"published,omitempty" yaml:"published,omitempty"`
	Title     string            `json:"title" yaml:"title"`
	Summary   string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Authors   []string          `json:"authors,omitempty" yaml:"authors,omitempty"`
	Comment   string            `json:"comment,omitempty" yaml:"comment,omitempty"`
	Tags      map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes the catalog to catalogDir/export.yaml (R4.1). It
// supports the same filters as Retrieve (R4.3).
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.catalogDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the catalog to catalogDir/export.json (R4.1). It
// supports the same filters as Retrieve (R4.3).
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.catalogDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:      r.ID,
			Title:   r.Title,
			Summary: r.Summary,
			Authors: r.Authors,
			Comment: r.Comment,
			Tags:    r.Tags,
		}
		if !r.Published.IsZero() {
			entries[i].Published = r.Published.Format(time.RFC3339)
		}
	}

	return entries, nil
}
