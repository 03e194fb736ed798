// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the survey-engine pipeline.
// Implements: prd001-harvest (Record, R3.1-R3.3);
//
//	prd002-classification (TagMap, TagSet, ResultRecord, R1-R4);
//	prd003-catalog (CatalogConfig).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// Record is one bibliographic record as produced by a harvest backend.
// Records are immutable for the lifetime of a classification run; identity
// for deduplication is the lower-cased title, while ID is the durable
// external identifier used in output. Per prd001-harvest R3.1.
type Record struct {
	// ID is the canonical identifier from the source repository
	// (e.g. arXiv ID "2301.07041" or a Semantic Scholar paper ID).
	ID string `json:"id" yaml:"id"`

	// Published is the publication or preprint date.
	Published time.Time `json:"published" yaml:"published"`

	// Title is the record title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Summary is the abstract or summary text.
	Summary string `json:"summary" yaml:"summary"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Comment is the optional author comment field (arXiv only).
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}
