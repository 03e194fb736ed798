// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest collects bibliographic records from academic APIs.
// Implements: prd001-harvest (R1-R5);
//
//	docs/ARCHITECTURE § Harvest.
package harvest

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Backend harvests records from a single academic API. Each backend
// (arXiv, Semantic Scholar) implements this interface per the Strategy
// pattern (R2.1).
type Backend interface {
	Name() string
	Harvest(ctx context.Context, query string, cfg types.HarvestConfig) ([]types.Record, error)
}

// Output holds the harvested records and per-backend failures.
type Output struct {
	Records       []types.Record
	BackendErrors []string
}

// Harvest runs the backends sequentially and concatenates their records
// in backend order (R1.1-R1.3). A failing backend is reported to w and
// recorded in BackendErrors; the remaining backends still run.
// Deduplication happens downstream, against the combined list.
func Harvest(ctx context.Context, query string, backends []Backend, cfg types.HarvestConfig, w io.Writer) (Output, error) {
	if query == "" {
		return Output{}, fmt.Errorf("query is empty")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no harvest backends configured")
	}

	var out Output
	for _, b := range backends {
		fmt.Fprintf(w, "harvesting from %s...\n", b.Name())

		// Each backend snapshots its own accumulation; prepend the
		// records of the backends that already finished so the partial
		// set on disk is always the combined one.
		backendCfg := cfg
		if cfg.Snapshot != nil {
			prior := out.Records
			backendCfg.Snapshot = func(recs []types.Record) error {
				combined := make([]types.Record, 0, len(prior)+len(recs))
				combined = append(combined, prior...)
				combined = append(combined, recs...)
				return cfg.Snapshot(combined)
			}
		}

		recs, err := b.Harvest(ctx, query, backendCfg)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", b.Name(), err)
			out.BackendErrors = append(out.BackendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", b.Name(), err)
			continue
		}
		fmt.Fprintf(w, "%s: %d records\n", b.Name(), len(recs))
		out.Records = append(out.Records, recs...)
	}
	return out, nil
}

// keepRecord applies the shared record acceptance rules: a usable title
// and, when StartYear is set, a publication year at or after it (R3.2).
func keepRecord(r types.Record, cfg types.HarvestConfig) bool {
	if r.Title == "" {
		return false
	}
	if cfg.StartYear > 0 {
		if r.Published.IsZero() || r.Published.Year() < cfg.StartYear {
			return false
		}
	}
	return true
}
