// Package types provides shared type definitions for the Knowbase server.
//
// This package defines the domain types that cross package boundaries:
// search results and their retrieval-method provenance, entry summaries,
// ingestion and deletion outcomes, and the shared error taxonomy.
//
// # Search Results
//
// SearchResponse carries ranked ResultItems plus the Method that produced
// them. Scores are comparable only within a single method; consumers must
// not re-rank items across methods.
//
// # Errors
//
// Three error shapes cover the failure surface: ValidationError for bad
// caller input, ErrNotFound for missing records on reads by ID, and
// UpstreamError for embedding-provider and similar external failures.
// All are matched with errors.Is / errors.As.
package types
