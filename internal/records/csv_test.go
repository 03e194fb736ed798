// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")

	recs := []types.Record{
		{
			ID:        "2301.07041",
			Published: time.Date(2023, 1, 17, 12, 0, 0, 0, time.UTC),
			Title:     "Neural Vocoders, Revisited",
			Summary:   "We revisit neural vocoders with a focus on sound effects.",
			Authors:   []string{"A. Author", "B. Author"},
			Comment:   "10 pages, 3 figures",
		},
		{
			ID:      "paper-no-date",
			Title:   "Untitled, Undated",
			Summary: "An abstract with a comma, and a\nnewline.",
		},
	}

	require.NoError(t, WriteCSV(path, recs))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, recs[0].ID, got[0].ID)
	assert.True(t, recs[0].Published.Equal(got[0].Published))
	assert.Equal(t, recs[0].Authors, got[0].Authors)
	assert.Equal(t, recs[0].Comment, got[0].Comment)

	assert.True(t, got[1].Published.IsZero())
	assert.Nil(t, got[1].Authors)
	assert.Equal(t, recs[1].Summary, got[1].Summary)
}

func TestReadCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,title\n1,Foo\n"), 0o644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing expected column")
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteCSVOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, WriteCSV(path, []types.Record{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}))
	require.NoError(t, WriteCSV(path, []types.Record{{ID: "c", Title: "C"}}))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}
