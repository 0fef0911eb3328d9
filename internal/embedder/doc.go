// Package embedder generates vector embeddings for knowledge chunks using various providers.
//
// The embedder supports multiple embedding providers (OpenAI, Ollama, local)
// and provides batching, caching, and error handling for production use.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Quarterly revenue grew 14% on subscription strength.",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// For efficiency, use batch processing:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: chunkContents,
//	})
//
//	for i, embedding := range resp.Embeddings {
//	    // Store embedding for chunk i
//	}
//
// Batching reduces API calls and improves throughput significantly.
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If KNOWBASE_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if OPENAI_API_KEY is set → use OpenAI
//  3. Else → fallback to local provider (offline mode)
//
// Provider comparison:
//
// OpenAI:
//   - Dimensions: 1536
//   - Quality: Excellent (general purpose)
//   - Cost: Pay per token
//
// Ollama:
//   - Dimensions: 768 (nomic-embed-text)
//   - Quality: Good
//   - Cost: Free, runs on your own hardware
//
// Local (offline):
//   - Dimensions: 384
//   - Deterministic hash-derived vectors with no semantic meaning;
//     intended for tests and development only
//
// # Caching
//
// The embedder includes an in-memory LRU cache keyed by content hash, so
// re-ingesting an unchanged document never repeats provider calls.
//
// # Error Handling
//
// Transient provider failures are retried with exponential backoff; the
// final failure surfaces as ErrProviderFailed:
//
//	emb, err := embedder.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // API temporarily unavailable, retry later
//	}
package embedder
