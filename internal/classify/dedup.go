// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Dedup removes records whose lower-cased title was already seen, keeping
// the first occurrence and preserving relative order. The input is never
// mutated and applying Dedup twice yields the same sequence as once.
// Per prd002-classification R1.1-R1.3.
func Dedup(recs []types.Record) []types.Record {
	seen := make(map[string]bool, len(recs))
	unique := make([]types.Record, 0, len(recs))
	for _, r := range recs {
		key := strings.ToLower(r.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, r)
	}
	return unique
}
