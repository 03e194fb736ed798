// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend pages through the arXiv API (R2.2).
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Harvest pages through arXiv results until MaxResults records are
// collected or the feed is exhausted, waiting PageDelay between pages
// (R2.2-R2.4). Transient API failures are retried per page.
func (b *ArxivBackend) Harvest(ctx context.Context, query string, cfg types.HarvestConfig) ([]types.Record, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 200
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > maxResults {
		pageSize = maxResults
	}

	var records []types.Record
	for start := 0; start < maxResults; start += pageSize {
		if start > 0 && cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(cfg.PageDelay):
			}
		}

		entries, err := b.fetchPage(ctx, query, start, pageSize, cfg)
		if err != nil {
			return nil, fmt.Errorf("arXiv page at %d: %w", start, err)
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			rec := entry.record()
			if rec.ID == "" || !keepRecord(rec, cfg) {
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

		// A short page means the feed is exhausted.
		if len(entries) < pageSize {
			break
		}
	}
	return records, nil
}

func (b *ArxivBackend) fetchPage(ctx context.Context, query string, start, pageSize int, cfg types.HarvestConfig) ([]arxivEntry, error) {
	params := url.Values{
		"search_query": {query},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(pageSize)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, httputil.Policy{})
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed.Entries, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Comment   string        `xml:"comment"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// record converts an Atom entry into a Record (R3.1).
func (e arxivEntry) record() types.Record {
	r := types.Record{
		ID:      extractArxivID(e.ID),
		Title:   collapseSpace(e.Title),
		Summary: collapseSpace(e.Summary),
		Comment: collapseSpace(e.Comment),
	}
	for _, a := range e.Authors {
		r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		r.Published = t
	}
	return r
}

// collapseSpace trims the text and folds internal line breaks left by the
// Atom feed into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
