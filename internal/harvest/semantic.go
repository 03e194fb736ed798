// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate"

// SemanticScholarBackend pages through the Semantic Scholar API (R2.5).
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Harvest pages through Semantic Scholar results by offset until
// MaxResults records are collected or a short page signals the end.
// Papers without an abstract are dropped (R2.5, R3.2).
func (b *SemanticScholarBackend) Harvest(ctx context.Context, query string, cfg types.HarvestConfig) ([]types.Record, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 200
	}
	limit := cfg.PageSize
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if limit > maxResults {
		limit = maxResults
	}

	var records []types.Record
	for offset := 0; offset < maxResults; offset += limit {
		if offset > 0 && cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(cfg.PageDelay):
			}
		}

		papers, err := b.fetchPage(ctx, query, offset, limit, cfg)
		if err != nil {
			return nil, fmt.Errorf("Semantic Scholar page at %d: %w", offset, err)
		}
		if len(papers) == 0 {
			break
		}

		for _, paper := range papers {
			rec := paper.record()
			if rec.Summary == "" || !keepRecord(rec, cfg) {
				continue
			}
			records = append(records, rec)
			if len(records) >= maxResults {
				return records, nil
			}
		}

		if cfg.Snapshot != nil {
			if err := cfg.Snapshot(records); err != nil {
				return nil, fmt.Errorf("writing harvest snapshot: %w", err)
			}
		}

		if len(papers) < limit {
			break
		}
	}
	return records, nil
}

func (b *SemanticScholarBackend) fetchPage(ctx context.Context, query string, offset, limit int, cfg types.HarvestConfig) ([]semanticPaper, error) {
	params := url.Values{
		"query":  {query},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, httputil.Policy{})
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return sr.Data, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// record converts an API paper into a Record. The durable identifier
// prefers the arXiv ID, then the DOI, then the Semantic Scholar paper ID
// (R3.1).
func (p semanticPaper) record() types.Record {
	r := types.Record{
		Title:   strings.TrimSpace(p.Title),
		Summary: strings.TrimSpace(p.Abstract),
	}

	switch {
	case p.ExternalIDs.ArXiv != "":
		r.ID = p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		r.ID = p.ExternalIDs.DOI
	default:
		r.ID = p.PaperID
	}

	for _, a := range p.Authors {
		r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
	}

	if p.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", p.PublicationDate); err == nil {
			r.Published = t
		}
	} else if p.Year > 0 {
		r.Published = time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return r
}
