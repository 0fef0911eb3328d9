// Command embed_check is a manual smoke test for the embedding and
// retrieval path. It ingests a sample article into an in-memory store
// using the embedder selected by the environment, then searches for it
// and prints what came back.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gistlabs/knowbase/internal/embedder"
	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/searcher"
	"github.com/gistlabs/knowbase/internal/storage"
)

func main() {
	fmt.Println("Testing embedding integration...")

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	emb, err := embedder.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer emb.Close()
	fmt.Printf("Provider: %s, Model: %s, Dimension: %d\n", emb.Provider(), emb.Model(), emb.Dimension())

	namespaces := []string{"research"}
	srch := searcher.New(store, emb, searcher.Config{Namespaces: namespaces}, nil)
	svc := knowledge.New(store, emb, srch, knowledge.Config{Namespaces: namespaces}, nil)

	ctx := context.Background()
	result, err := svc.Ingest(ctx, knowledge.IngestRequest{
		URL:      "https://example.com/vector-databases",
		Title:    "Vector Databases Explained",
		Content:  "Vector databases store high-dimensional embeddings and answer nearest-neighbor queries. They power semantic search by comparing cosine similarity between a query vector and stored document vectors.",
		Category: "research",
		AddedBy:  "embed-check",
	})
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}
	svc.Wait()

	fmt.Printf("\nIngested entry %s (status %s)\n", result.EntryID, result.Status)

	ns, err := store.GetNamespace(ctx, "research")
	if err != nil {
		log.Fatalf("Failed to get namespace: %v", err)
	}
	count, err := store.CountEmbeddings(ctx, ns.ID)
	if err != nil {
		log.Fatalf("Failed to count embeddings: %v", err)
	}
	fmt.Printf("Embeddings in DB: %d\n", count)

	resp, err := srch.Search(ctx, "how does semantic search work", "all", 5)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("\nSearch method: %s\n", resp.Method)
	for i, item := range resp.Results {
		fmt.Printf("  %d. %s (score %.3f, %s)\n", i+1, item.Title, item.Score, item.Method)
	}

	if count > 0 && len(resp.Results) > 0 {
		fmt.Println("\n✓ SUCCESS: Embeddings were generated and retrieved!")
	} else {
		fmt.Println("\n✗ FAILURE: Retrieval produced no results!")
	}
}
