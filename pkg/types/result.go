package types

import "time"

// Method identifies which retrieval path produced a search response.
type Method string

const (
	// MethodVector means the response came from semantic vector search alone.
	MethodVector Method = "vector"
	// MethodHybrid means title matches lead the response with vector hits appended.
	MethodHybrid Method = "hybrid"
	// MethodTitleMatch means only the lexical title matcher produced results.
	MethodTitleMatch Method = "title_match"
	// MethodNone means no retrieval path produced anything.
	MethodNone Method = "none"
)

// ResultItem is a single ranked search result.
//
// Score is on a 0-1 scale but is NOT comparable across methods: vector
// scores derive from cosine similarity while title-match scores come from
// a keyword-coverage heuristic.
type ResultItem struct {
	Namespace string
	EntryID   string
	Title     string
	URL       string // from entry metadata; empty when the entry has none
	Preview   string // matched chunk with neighboring context, or title text
	Score     float64
	Method    Method // provenance of this individual item
}

// SearchResponse is the outcome of one hybrid search.
type SearchResponse struct {
	Results []ResultItem
	Method  Method // overall decision: vector, hybrid, title_match, or none
}

// EntrySummary describes one stored entry without its content.
type EntrySummary struct {
	EntryID   string
	Namespace string
	Key       string
	Title     string
	URL       string
	Status    string
	AddedBy   string
	AddedAt   time.Time
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	EntryID   string
	Namespace string
	Status    string // "ready" or "pending"
	Replaced  bool
}

// DeleteResult reports the outcome of a delete-by-URL.
// Deleted false means the URL was not found in any namespace's scan
// window; that is not an error.
type DeleteResult struct {
	Deleted   bool
	Namespace string
	Title     string
}

// NamespaceStats is the per-namespace slice of the dashboard rollup.
type NamespaceStats struct {
	Namespace string
	Count     int
}

// Stats is the read-only rollup consumed by dashboard reporting.
type Stats struct {
	TotalEntries  int
	PerNamespace  []NamespaceStats
	RecentEntries []EntrySummary
}
