// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

var tagLabels = []string{"nas", "architecture", "sound_type"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.CatalogConfig{CatalogDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecords() []types.Record {
	return []types.Record{
		{
			ID:        "2301.00001",
			Published: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
			Title:     "Neural Architecture Search for Sound Synthesis",
			Summary:   "We search architectures for generating sound effects.",
			Authors:   []string{"First Author", "Second Author"},
			Comment:   "10 pages",
		},
		{
			ID:        "2302.00002",
			Published: time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC),
			Title:     "A Survey of Speech Models",
			Summary:   "Speech generation surveyed at length.",
			Authors:   []string{"Third Author"},
		},
	}
}

func testResults() []types.ResultRecord {
	return []types.ResultRecord{
		{ID: "2301.00001", Values: []string{"yes", "GAN", "sound effect"}},
	}
}

func ingestAll(t *testing.T, s *Store) IngestSummary {
	t.Helper()
	summary, err := s.Ingest(context.Background(), testRecords(), tagLabels, testResults(), &bytes.Buffer{})
	require.NoError(t, err)
	return summary
}

func TestIngestAndRetrieve(t *testing.T) {
	s := newTestStore(t)

	summary := ingestAll(t, s)
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Tagged)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.Total())

	results, err := s.Retrieve(context.Background(), QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Newest first without a full-text query.
	assert.Equal(t, "2302.00002", results[0].ID)
	assert.Equal(t, "2301.00001", results[1].ID)

	tagged := results[1]
	assert.Equal(t, "Neural Architecture Search for Sound Synthesis", tagged.Title)
	assert.Equal(t, []string{"First Author", "Second Author"}, tagged.Authors)
	assert.Equal(t, types.TagMap{"nas": "yes", "architecture": "GAN", "sound_type": "sound effect"}, tagged.Tags)
	assert.Nil(t, results[0].Tags)
}

func TestIngestUpsert(t *testing.T) {
	s := newTestStore(t)
	ingestAll(t, s)

	recs := testRecords()
	recs[0].Comment = "revised, 12 pages"
	summary, err := s.Ingest(context.Background(), recs[:1], tagLabels, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 1, summary.Updated)

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "architecture"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "revised, 12 pages", results[0].Comment)
	// Tags from the earlier run survive an untagged upsert.
	assert.Equal(t, "yes", results[0].Tags["nas"])
}

func TestRetrieveFullText(t *testing.T) {
	s := newTestStore(t)
	ingestAll(t, s)

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "speech"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2302.00002", results[0].ID)

	results, err = s.Retrieve(context.Background(), QueryOptions{Query: "nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveTagFilters(t *testing.T) {
	s := newTestStore(t)
	ingestAll(t, s)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{
			name: "label only",
			opts: QueryOptions{Label: "nas"},
			want: []string{"2301.00001"},
		},
		{
			name: "label and value",
			opts: QueryOptions{Label: "architecture", Value: "GAN"},
			want: []string{"2301.00001"},
		},
		{
			name: "value mismatch",
			opts: QueryOptions{Label: "architecture", Value: "transformer"},
			want: nil,
		},
		{
			name: "unknown label",
			opts: QueryOptions{Label: "license"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Retrieve(context.Background(), tt.opts)
			require.NoError(t, err)
			var ids []string
			for _, r := range results {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	s := newTestStore(t)
	ingestAll(t, s)

	results, err := s.Retrieve(context.Background(), QueryOptions{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIngestMissingID(t *testing.T) {
	s := newTestStore(t)
	var buf bytes.Buffer
	summary, err := s.Ingest(context.Background(), []types.Record{{Title: "No ID"}}, tagLabels, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, buf.String(), "failed  (no id): No ID")
}

func TestIngestValueCountMismatch(t *testing.T) {
	s := newTestStore(t)
	results := []types.ResultRecord{{ID: "2301.00001", Values: []string{"yes"}}}
	var buf bytes.Buffer
	summary, err := s.Ingest(context.Background(), testRecords()[:1], tagLabels, results, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, buf.String(), "1 values for 3 labels")
}

func TestExportYAML(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CatalogConfig{CatalogDir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Ingest(context.Background(), testRecords(), tagLabels, testResults(), &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, s.ExportYAML(context.Background(), QueryOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	require.NoError(t, err)

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "2302.00002", entries[0].ID)
	assert.Equal(t, "yes", entries[1].Tags["nas"])
	assert.Equal(t, "2023-01-10T00:00:00Z", entries[1].Published)
}

func TestExportYAMLWithFilter(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CatalogConfig{CatalogDir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Ingest(context.Background(), testRecords(), tagLabels, testResults(), &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, s.ExportYAML(context.Background(), QueryOptions{Label: "nas", Value: "yes"}))

	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	require.NoError(t, err)

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "2301.00001", entries[0].ID)
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CatalogConfig{CatalogDir: dir})
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), testRecords(), tagLabels, testResults(), &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewStore(types.CatalogConfig{CatalogDir: dir})
	require.NoError(t, err)
	defer s2.Close()

	results, err := s2.Retrieve(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
