// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// ParseTags turns a free-text classification reply into a TagMap. Each line
// containing a colon is split on the first colon; the label is lower-cased
// and trimmed, the value trimmed with case preserved. Later duplicate
// labels overwrite earlier ones and lines without a colon are ignored. An
// empty reply produces an empty map, not an error. Per
// prd002-classification R2.1, R2.2.
func ParseTags(reply string) types.TagMap {
	tags := make(types.TagMap)
	for _, line := range strings.Split(reply, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		tags[strings.ToLower(strings.TrimSpace(label))] = strings.TrimSpace(value)
	}
	return tags
}

// Taxonomy is the set of tag labels the deployment expects, lower-cased.
type Taxonomy []string

// Resolve validates a TagMap against the taxonomy. Known labels are copied
// into TagSet.Known; labels the service emitted outside the taxonomy are
// kept in TagSet.Unrecognized so downstream filtering cannot silently
// misread a typo'd label (R2.3, R2.4).
func (t Taxonomy) Resolve(m types.TagMap) types.TagSet {
	set := types.TagSet{Known: make(types.TagMap)}
	known := make(map[string]bool, len(t))
	for _, label := range t {
		known[strings.ToLower(label)] = true
	}
	for label, value := range m {
		if known[label] {
			set.Known[label] = value
			continue
		}
		if set.Unrecognized == nil {
			set.Unrecognized = make(types.TagMap)
		}
		set.Unrecognized[label] = value
	}
	return set
}
