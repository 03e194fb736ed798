// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TagMap maps a lower-cased tag label to its trimmed value, exactly as
// extracted from a classification reply. Keys are whatever labels the
// service chose to emit; the map is created and discarded per record.
// Per prd002-classification R2.1.
type TagMap map[string]string

// Get returns the value for label, or fallback when the label is absent.
func (m TagMap) Get(label, fallback string) string {
	if v, ok := m[label]; ok {
		return v
	}
	return fallback
}

// TagSet is a TagMap validated against a taxonomy. Labels the taxonomy
// knows land in Known; everything else lands in Unrecognized so a typo'd
// label cannot be silently misread downstream. Per prd002-classification
// R2.3, R2.4.
type TagSet struct {
	Known        TagMap `json:"known" yaml:"known"`
	Unrecognized TagMap `json:"unrecognized,omitempty" yaml:"unrecognized,omitempty"`
}

// ResultRecord is one qualifying record: the source identifier plus the
// fixed projection of tag values chosen by the result filter. Columns
// holds the projected values in declared projection order. Per
// prd002-classification R4.2.
type ResultRecord struct {
	// ID is the durable external identifier of the source record.
	ID string `json:"id" yaml:"id"`

	// Values are the projected tag values, aligned with the filter's
	// projection column order.
	Values []string `json:"values" yaml:"values"`
}
