// Package storage provides SQLite-based persistence for the knowledge base.
//
// The storage layer manages:
//   - Namespaces (lazily created partitions of the knowledge base)
//   - Entries keyed by (namespace, key) where key is usually the source URL
//   - Content chunks in document order
//   - Vector embeddings for chunks
//
// # Database Schema
//
// Tables:
//   - namespaces: Named partitions, unique by name
//   - entries: One row per stored document, unique by (namespace_id, key)
//   - chunks: Ordered content sections, unique by (entry_id, position)
//   - embeddings: One vector per chunk
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.knowbase/knowbase.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	ns, _ := db.EnsureNamespace(ctx, "research")
//	replaced, err := db.UpsertEntry(ctx, &storage.Entry{
//	    EntryID:     uuid.NewString(),
//	    NamespaceID: ns.ID,
//	    Key:         "https://example.com/post",
//	    Title:       "Example Post",
//	    Status:      storage.EntryStatusReady,
//	}, chunks)
//
// UpsertEntry replaces any prior entry with the same (namespace, key) and
// rewrites its chunk set atomically; cascaded deletes remove the stale
// embeddings.
//
// # Vector Operations
//
//	results, err := db.SearchVector(ctx, ns.ID, queryVector, limit, 0.4)
//	for _, result := range results {
//	    fmt.Printf("Chunk %d: score %.3f\n", result.ChunkID, result.SimilarityScore)
//	}
//
// Vector search uses cosine similarity via sqlite-vec extension (CGO build)
// or a pure Go scan (purego build). Only chunks belonging to ready entries
// are candidates, so half-ingested documents never surface.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
