// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// Rule is the retention predicate: a record qualifies when the value of
// Label contains Contains, case-insensitively. A missing label never
// matches. Per prd002-classification R4.1.
type Rule struct {
	// Label is the lower-cased tag label the predicate inspects.
	Label string `json:"label" yaml:"label"`

	// Contains is the substring that must appear in the label's value.
	Contains string `json:"contains" yaml:"contains"`
}

// Field is one column of the result projection.
type Field struct {
	// Label is the lower-cased tag label the value is drawn from.
	Label string `json:"label" yaml:"label"`

	// Column is the output column name. Empty defaults to Label.
	Column string `json:"column,omitempty" yaml:"column,omitempty"`

	// Default is the value used when the label is absent from the reply.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Filter decides which classified records are retained and which tag
// values appear in the output. Per prd002-classification R4.1-R4.3.
type Filter struct {
	Retain     Rule    `json:"retain" yaml:"retain"`
	Projection []Field `json:"projection" yaml:"projection"`
}

// DefaultFilter is the reference deployment's retention rule: keep records
// the service tagged as neural audio synthesis, projecting architecture
// and sound type with "unknown" defaults.
func DefaultFilter() Filter {
	return Filter{
		Retain: Rule{Label: "nas", Contains: "yes"},
		Projection: []Field{
			{Label: "nas"},
			{Label: "architecture", Default: "unknown"},
			{Label: "sound type", Column: "sound_type", Default: "unknown"},
		},
	}
}

// LoadFilter reads a Filter definition from a YAML file.
func LoadFilter(path string) (Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Filter{}, fmt.Errorf("reading filter file %s: %w", path, err)
	}
	var f Filter
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Filter{}, fmt.Errorf("parsing filter file %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return Filter{}, fmt.Errorf("filter file %s: %w", path, err)
	}
	return f, nil
}

func (f Filter) validate() error {
	if f.Retain.Label == "" {
		return fmt.Errorf("retain rule has no label")
	}
	if len(f.Projection) == 0 {
		return fmt.Errorf("projection has no fields")
	}
	for i, field := range f.Projection {
		if field.Label == "" {
			return fmt.Errorf("projection field %d has no label", i)
		}
	}
	return nil
}

// Taxonomy returns the labels the filter relies on; everything outside the
// taxonomy lands in a TagSet's Unrecognized bucket.
func (f Filter) Taxonomy() Taxonomy {
	labels := []string{strings.ToLower(f.Retain.Label)}
	seen := map[string]bool{labels[0]: true}
	for _, field := range f.Projection {
		l := strings.ToLower(field.Label)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	return Taxonomy(labels)
}

// Qualifies reports whether the tag set satisfies the retention rule.
// Never panics: an absent retain label simply does not match (R4.1).
func (f Filter) Qualifies(set types.TagSet) bool {
	value, ok := set.Known[strings.ToLower(f.Retain.Label)]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(f.Retain.Contains))
}

// Project builds the ResultRecord for a qualifying record: the source ID
// plus the projected tag values in declared order, using each field's
// default when the label is absent (R4.2, R4.3).
func (f Filter) Project(id string, set types.TagSet) types.ResultRecord {
	values := make([]string, len(f.Projection))
	for i, field := range f.Projection {
		values[i] = set.Known.Get(strings.ToLower(field.Label), field.Default)
	}
	return types.ResultRecord{ID: id, Values: values}
}

// Columns returns the output column names of the projection, with the ID
// column first.
func (f Filter) Columns() []string {
	cols := make([]string, 0, len(f.Projection)+1)
	cols = append(cols, "id")
	for _, field := range f.Projection {
		name := field.Column
		if name == "" {
			name = field.Label
		}
		cols = append(cols, name)
	}
	return cols
}
