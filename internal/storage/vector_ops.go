package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchVector performs vector similarity search using cosine similarity.
// Only chunks of ready entries in the given namespace are candidates; the
// minScore floor is applied here so callers never see weak matches.
func searchVector(ctx context.Context, db *sql.DB, namespaceID int64, queryVector []float32, limit int, minScore float64) ([]VectorResult, error) {
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, namespaceID, queryVector, limit, minScore)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, namespaceID, queryVector, limit, minScore)
}

// searchVectorOptimized uses sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, db *sql.DB, namespaceID int64, queryVector []float32, limit int, minScore float64) ([]VectorResult, error) {
	// Serialize query vector for sqlite-vec
	queryVectorBlob := serializeVector(queryVector)

	// Build SQL query that computes distance at database layer
	// Note: sqlite-vec's vec_distance_cosine returns distance (lower is better)
	// We convert to similarity (1 - distance) to maintain API compatibility
	query := `
		SELECT
			c.id as chunk_id,
			1.0 - vec_distance_cosine(emb.vector, ?) as similarity
		FROM chunks c
		INNER JOIN embeddings emb ON c.id = emb.chunk_id
		INNER JOIN entries e ON c.entry_id = e.id
		WHERE e.namespace_id = ?
		AND e.status = ?
	`
	args := []interface{}{queryVectorBlob, namespaceID, EntryStatusReady}

	if minScore > 0 {
		query += " AND (1.0 - vec_distance_cosine(emb.vector, ?)) >= ?"
		args = append(args, queryVectorBlob, minScore)
	}

	// Order by similarity (descending) and apply LIMIT in SQL
	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	// Execute query - results are already sorted and filtered
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Collect results - no sorting needed as SQL handles it
	// Handle edge case: negative or zero limit
	if limit <= 0 {
		return []VectorResult{}, nil
	}
	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.ChunkID, &result.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// searchVectorFallback performs vector search using Go-based cosine similarity computation
// This is used when sqlite-vec extension is not available (purego builds)
func searchVectorFallback(ctx context.Context, db *sql.DB, namespaceID int64, queryVector []float32, limit int, minScore float64) ([]VectorResult, error) {
	query := `
		SELECT
			c.id as chunk_id,
			emb.vector
		FROM chunks c
		INNER JOIN embeddings emb ON c.id = emb.chunk_id
		INNER JOIN entries e ON c.entry_id = e.id
		WHERE e.namespace_id = ?
		AND e.status = ?
	`

	// Execute query to get all candidate embeddings
	rows, err := db.QueryContext(ctx, query, namespaceID, EntryStatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Compute similarity scores and rank in Go
	candidates, err := computeSimilarityScores(rows, queryVector, minScore)
	if err != nil {
		return nil, err
	}

	// Sort by similarity (descending)
	sortCandidates(candidates)

	// Return top K
	return buildVectorResults(candidates, limit), nil
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32, minScore float64) ([]candidate, error) {
	candidates := make([]candidate, 0, 1000)

	for rows.Next() {
		var chunkID int64
		var vectorBlob []byte
		if err := rows.Scan(&chunkID, &vectorBlob); err != nil {
			return nil, err
		}

		// Deserialize vector
		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		// Compute cosine similarity
		similarity := cosineSimilarity(queryVector, vector)

		// Apply score floor
		if minScore > 0 && similarity < minScore {
			continue
		}

		candidates = append(candidates, candidate{chunkID: chunkID, score: similarity})
	}

	return candidates, rows.Err()
}

// buildVectorResults creates VectorResult slice from candidates
func buildVectorResults(candidates []candidate, limit int) []VectorResult {
	// Handle negative or zero limit - return all candidates
	if limit <= 0 {
		limit = len(candidates)
	}
	if limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{
			ChunkID:         candidates[i].chunkID,
			SimilarityScore: candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a chunk with its similarity score
type candidate struct {
	chunkID int64
	score   float64
}

// sortCandidates sorts candidates by score in descending order using O(n log n) algorithm
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
