// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/survey-engine/pkg/types"
)

func recordsWithTitles(titles ...string) []types.Record {
	recs := make([]types.Record, len(titles))
	for i, title := range titles {
		recs[i] = types.Record{ID: title, Title: title}
	}
	return recs
}

func titlesOf(recs []types.Record) []string {
	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Title
	}
	return titles
}

func TestDedup(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		want  []string
	}{
		{
			name: "case-insensitive title identity",
			in:   []string{"Foo", "foo", "Bar"},
			want: []string{"Foo", "Bar"},
		},
		{
			name: "first occurrence wins, order preserved",
			in:   []string{"B", "A", "b", "C", "a"},
			want: []string{"B", "A", "C"},
		},
		{
			name: "no duplicates",
			in:   []string{"X", "Y", "Z"},
			want: []string{"X", "Y", "Z"},
		},
		{
			name: "empty input",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedup(recordsWithTitles(tt.in...))
			assert.Equal(t, tt.want, titlesOf(got))
		})
	}
}

func TestDedupIdempotent(t *testing.T) {
	in := recordsWithTitles("Foo", "foo", "Bar", "BAR", "baz")
	once := Dedup(in)
	twice := Dedup(once)
	assert.Equal(t, once, twice)
}

func TestDedupDoesNotMutateInput(t *testing.T) {
	in := recordsWithTitles("A", "a", "B")
	Dedup(in)
	assert.Equal(t, []string{"A", "a", "B"}, titlesOf(in))
}
