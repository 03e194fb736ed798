// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify runs the resumable batch-classification pipeline:
// deduplication, checkpoint/resume bookkeeping, rate-limited calls to a
// text-generation service, free-text tag parsing, and filtered result
// accumulation. Implements: prd002-classification (R1-R5);
//
//	docs/ARCHITECTURE § Classification.
package classify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

const defaultCheckpointFreq = 10

// RunSummary holds counts from a classification run (R1.5). Every record
// position attempted counts in exactly one bucket.
type RunSummary struct {
	Retained    int
	FilteredOut int
	Failed      int
}

// Total returns the number of record positions attempted in this run.
func (s RunSummary) Total() int {
	return s.Retained + s.FilteredOut + s.Failed
}

// Run drives the classification pipeline over a record list, strictly
// sequentially. It deduplicates the input, resumes at the persisted
// checkpoint, classifies each remaining record through the backend,
// retains records that satisfy the filter, and flushes results and
// checkpoint together every cfg.CheckpointFreq records and once at
// completion (R1.4, R3.1-R3.5).
//
// Every record advances the checkpoint by one whether classification
// succeeded, failed, or the record was filtered out: the checkpoint counts
// positions attempted, not records retained. A classification failure is
// reported to w and skipped, never surfaced as a run error. After every
// attempt the pipeline sleeps cfg.CallDelay to respect service rate
// limits; backoff for transient failures lives in the backend, not here.
//
// Cancellation is observed between records and during delays; on cancel
// Run returns ctx.Err() without a final save, so the last periodic
// checkpoint stands as the resumption point.
func Run(ctx context.Context, recs []types.Record, backend Backend, filter Filter, cfg types.ClassifyConfig, w io.Writer) (RunSummary, error) {
	deduped := Dedup(recs)
	fmt.Fprintf(w, "total unique records: %d (%d duplicates removed)\n", len(deduped), len(recs)-len(deduped))

	checkpoint, err := LoadCheckpoint(cfg.CheckpointPath)
	if err != nil {
		return RunSummary{}, err
	}
	if checkpoint > len(deduped) {
		return RunSummary{}, fmt.Errorf("checkpoint %s: %d exceeds record count %d; the input has changed since the checkpoint was written",
			cfg.CheckpointPath, checkpoint, len(deduped))
	}
	fmt.Fprintf(w, "resuming from record #%d\n", checkpoint)

	sink := NewSink(cfg.ResultsPath, filter)
	if checkpoint > 0 {
		if err := sink.LoadExisting(); err != nil {
			return RunSummary{}, err
		}
	}

	freq := cfg.CheckpointFreq
	if freq <= 0 {
		freq = defaultCheckpointFreq
	}
	taxonomy := filter.Taxonomy()
	var summary RunSummary

	for i := checkpoint; i < len(deduped); i++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		rec := deduped[i]
		fmt.Fprintf(w, "processing record #%d: %s\n", i+1, truncate(rec.Title, 50))

		reply, err := backend.Classify(ctx, rec.Title, rec.Summary)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(w, "failed  %s: %v\n", rec.ID, err)
			summary.Failed++
		} else {
			set := taxonomy.Resolve(ParseTags(reply))
			if filter.Qualifies(set) {
				sink.Add(filter.Project(rec.ID, set))
				summary.Retained++
			} else {
				summary.FilteredOut++
			}
		}

		// Periodic persistence: results first, then the checkpoint, so a
		// crash between the two reprocesses rather than loses records.
		if (i+1)%freq == 0 {
			if err := flush(sink, cfg.CheckpointPath, i+1, w); err != nil {
				return summary, err
			}
		}

		if cfg.CallDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(cfg.CallDelay):
			}
		}
	}

	if err := flush(sink, cfg.CheckpointPath, len(deduped), w); err != nil {
		return summary, err
	}
	fmt.Fprintf(w, "\nclassification complete: %d retained, %d filtered out, %d failed (total: %d)\n",
		summary.Retained, summary.FilteredOut, summary.Failed, summary.Total())
	return summary, nil
}

// flush persists the accumulated results and the progress marker as one
// resumption unit.
func flush(sink *Sink, checkpointPath string, n int, w io.Writer) error {
	if err := sink.Flush(); err != nil {
		return err
	}
	if err := SaveCheckpoint(checkpointPath, n); err != nil {
		return err
	}
	fmt.Fprintf(w, "checkpoint saved at record #%d - %d records retained\n", n, sink.Len())
	return nil
}

// truncate shortens s to max runes, never splitting a multibyte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
