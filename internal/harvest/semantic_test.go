// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func withSemanticAPIBase(t *testing.T, url string) {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = url
	t.Cleanup(func() { semanticAPIBase = old })
}

func semanticPaperJSON(id, arxiv, doi, title, abstract string) semanticPaper {
	return semanticPaper{
		PaperID:         id,
		Title:           title,
		Abstract:        abstract,
		Year:            2023,
		PublicationDate: "2023-05-10",
		Authors:         []semanticAuthor{{AuthorID: "a1", Name: "Some Author"}},
		ExternalIDs:     semanticExternalIDs{DOI: doi, ArXiv: arxiv},
	}
}

func serveSemanticPage(t *testing.T, w http.ResponseWriter, papers ...semanticPaper) {
	t.Helper()
	err := json.NewEncoder(w).Encode(semanticResponse{Total: len(papers), Data: papers})
	require.NoError(t, err)
}

func TestSemanticHarvestSinglePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio synthesis", r.URL.Query().Get("query"))
		assert.Equal(t, semanticFields, r.URL.Query().Get("fields"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		serveSemanticPage(t, w,
			semanticPaperJSON("p1", "2301.07041", "", "Neural Sound Effects", "An abstract."),
		)
	}))
	defer ts.Close()
	withSemanticAPIBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client(), APIKey: "secret"}
	recs, err := b.Harvest(context.Background(), "audio synthesis", types.HarvestConfig{MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "2301.07041", recs[0].ID)
	assert.Equal(t, "Neural Sound Effects", recs[0].Title)
	assert.Equal(t, "An abstract.", recs[0].Summary)
	assert.Equal(t, []string{"Some Author"}, recs[0].Authors)
	assert.Equal(t, time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC), recs[0].Published)
}

func TestSemanticHarvestNoAPIKeyHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		serveSemanticPage(t, w)
	}))
	defer ts.Close()
	withSemanticAPIBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	recs, err := b.Harvest(context.Background(), "audio", types.HarvestConfig{MaxResults: 10})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSemanticHarvestPaging(t *testing.T) {
	var offsets []int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)
		if offset == 0 {
			serveSemanticPage(t, w,
				semanticPaperJSON("p1", "", "", "Paper One", "Abstract one."),
				semanticPaperJSON("p2", "", "", "Paper Two", "Abstract two."),
			)
			return
		}
		serveSemanticPage(t, w,
			semanticPaperJSON("p3", "", "", "Paper Three", "Abstract three."),
		)
	}))
	defer ts.Close()
	withSemanticAPIBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	recs, err := b.Harvest(context.Background(), "audio", types.HarvestConfig{MaxResults: 10, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, offsets)
	require.Len(t, recs, 3)
	assert.Equal(t, "p3", recs[2].ID)
}

func TestSemanticHarvestDropsMissingAbstract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveSemanticPage(t, w,
			semanticPaperJSON("p1", "", "", "No Abstract", ""),
			semanticPaperJSON("p2", "", "", "Has Abstract", "An abstract."),
		)
	}))
	defer ts.Close()
	withSemanticAPIBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	recs, err := b.Harvest(context.Background(), "audio", types.HarvestConfig{MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Has Abstract", recs[0].Title)
}

func TestSemanticHarvestHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()
	withSemanticAPIBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	_, err := b.Harvest(context.Background(), "audio", types.HarvestConfig{MaxResults: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestSemanticIdentifierPreference(t *testing.T) {
	tests := []struct {
		name  string
		paper semanticPaper
		want  string
	}{
		{
			name:  "arxiv preferred",
			paper: semanticPaperJSON("p1", "2301.07041", "10.1000/x", "T", "A"),
			want:  "2301.07041",
		},
		{
			name:  "doi fallback",
			paper: semanticPaperJSON("p1", "", "10.1000/x", "T", "A"),
			want:  "10.1000/x",
		},
		{
			name:  "paper id last",
			paper: semanticPaperJSON("p1", "", "", "T", "A"),
			want:  "p1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.paper.record().ID)
		})
	}
}

func TestSemanticRecordYearOnlyDate(t *testing.T) {
	p := semanticPaperJSON("p1", "", "", "T", "A")
	p.PublicationDate = ""
	p.Year = 2021
	assert.Equal(t, 2021, p.record().Published.Year())
}
