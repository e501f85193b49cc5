// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scilit metadata
// reconciliation engine.
package types

// Record is the canonical bibliographic description produced by
// reconciliation, independent of any single provider's native format.
// Every field is optional; a record with neither title nor authors is
// empty and never a usable candidate.
type Record struct {
	// Title is the work's title, with subtitle appended where the source
	// carries one separately.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors lists display names in citation order, not alphabetical.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Publisher is the publishing house or host organization.
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`

	// Journal is the container title (journal, conference, series).
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// DOI is the bare DOI, without a resolver prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ISBN is the edition identifier, digits and X only.
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// ISSN is the serial identifier.
	ISSN string `json:"issn,omitempty" yaml:"issn,omitempty"`

	// PageCount is the extent in pages.
	PageCount int `json:"page_count,omitempty" yaml:"page_count,omitempty"`

	// Language is a two-letter code (e.g. "en", "de") where the source
	// allows normalization.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Keywords are unordered topic labels.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Abstract is the work's abstract or description.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// WorkType classifies the work (e.g. "journal-article", "book").
	WorkType string `json:"work_type,omitempty" yaml:"work_type,omitempty"`

	// CitedByCount is the citation count where the provider reports one.
	CitedByCount int `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`

	// IsOpenAccess reports open-access availability.
	IsOpenAccess bool `json:"is_open_access,omitempty" yaml:"is_open_access,omitempty"`
}

// IsEmpty reports whether the record carries neither a title nor authors.
func (r Record) IsEmpty() bool {
	return r.Title == "" && len(r.Authors) == 0
}

// QuerySpec is the reconciliation input extracted from a document's basic
// metadata: a title, authors, and at most one hard identifier of each kind.
type QuerySpec struct {
	Title   string
	Authors []string
	DOI     string
	ISBN    string
}

// IsEmpty reports whether the spec contains nothing to query with.
func (q QuerySpec) IsEmpty() bool {
	return q.Title == "" && len(q.Authors) == 0 && q.DOI == "" && q.ISBN == ""
}
