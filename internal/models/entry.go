// Package models defines the domain types for linkfinder.
package models

import "time"

// Kind identifies what a linkable entry points at.
type Kind string

// Entry kinds.
const (
	KindTitle   Kind = "title"
	KindHeading Kind = "heading"
	KindBlock   Kind = "block"
	KindTag     Kind = "tag"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTitle, KindHeading, KindBlock, KindTag:
		return true
	}
	return false
}

// Entry is one linkable target extracted from a document.
type Entry struct {
	Kind        Kind   `json:"kind"`
	SourcePath  string `json:"source_path"`
	SourceTitle string `json:"source_title"`
	Target      string `json:"target"`
	DisplayText string `json:"display_text"`
}

// EntryID is the identity of an Entry. DisplayText and SourceTitle are not
// part of it.
type EntryID struct {
	Kind       Kind   `json:"kind"`
	SourcePath string `json:"source_path"`
	Target     string `json:"target"`
}

// ID returns the deduplication identity of e.
func (e Entry) ID() EntryID {
	return EntryID{Kind: e.Kind, SourcePath: e.SourcePath, Target: e.Target}
}

// Match is a ranked query hit. Score is 0 for the exact tier and 0.5 for the
// fuzzy tier; lower ranks first.
type Match struct {
	Entry
	Score float64 `json:"score"`
}

// DocumentMeta is a lightweight representation of a vault document returned
// by list operations.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
