// Package searcher implements the hybrid search cascade over the
// knowledge store: semantic vector retrieval first, lexical title
// matching as fallback and disambiguator.
//
// # Basic Usage
//
//	s := searcher.New(store, emb, searcher.Config{
//	    Namespaces: []string{"competitors", "research", "internal", "general"},
//	}, logger)
//
//	resp, err := s.Search(ctx, "jasper pricing model", searcher.ScopeAll, 5)
//	for _, r := range resp.Results {
//	    fmt.Printf("[%s] %.2f %s\n", r.Method, r.Score, r.Title)
//	}
//
// # The Cascade
//
// Stage A issues one vector query per target namespace, asking for
// ceil(limit/namespaces)+2 candidates each with a 0.4 similarity floor
// applied inside the index. Each hit carries one neighboring chunk on
// either side as preview context. Hits merge across namespaces, sort by
// score, and truncate to limit.
//
// Decision point 1: a top score at or above 0.5 is trusted outright and
// returned as method "vector". This is the common path.
//
// Stage B tokenizes the query (lowercase, punctuation stripped, tokens
// of length <= 2 and stop words dropped) and scores the titles of each
// namespace's most recent entries by keyword coverage, keeping scores
// above 0.3.
//
// Decision point 2: a top title score above 0.5 leads a "hybrid"
// response, with vector hits appended after the title matches unless an
// identical URL is already present. The combined list is never re-sorted
// because the two score scales are not comparable.
//
// Otherwise whichever stage produced results wins ("vector" before
// "title_match"), or the response is empty with method "none".
//
// # Degradation
//
// A namespace that fails during fan-out contributes zero results and a
// warning log line. The search as a whole errors only when no namespace
// could be queried by either stage, so a partially broken knowledge base
// still answers.
//
// # Caching
//
// Responses are cached in an LRU keyed on (query, scope, limit) with a
// short TTL. Ingestion and deletion purge the whole cache via
// InvalidateCache.
package searcher
