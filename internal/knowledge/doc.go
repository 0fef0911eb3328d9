// Package knowledge is the ingestion/deletion gateway in front of the
// store: idempotent upsert-by-URL, bounded delete-by-URL, entry
// listings, and the dashboard stats rollup.
//
// Ingestion uses the source URL as the idempotency key. Ingesting the
// same URL twice into a namespace replaces the prior entry's title,
// content, and metadata and reports Replaced rather than erroring.
// Namespaces are created lazily here and nowhere else; search never
// creates one.
//
// Short documents are chunked and embedded before Ingest returns and
// come back "ready". Documents whose chunk count exceeds the sync
// threshold come back "pending" while a background goroutine finishes
// embedding; pending entries appear in listings and title search but
// not in vector search.
//
// Deletion by URL is a bounded scan: each configured namespace's most
// recent entries (100 by default), checked in configured namespace
// order, first match wins. A URL nobody ingested recently reports
// Deleted false rather than an error. An entry buried under more than a
// window's worth of newer entries in its namespace is out of reach of
// this operation; widen DeleteScanWindow if that matters.
package knowledge
