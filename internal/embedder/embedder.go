package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Sentinel errors shared by every provider.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// defaultCacheMax bounds the embedding cache when no size is given.
// At 1536 float32 dimensions that is roughly 60MB of vectors.
const defaultCacheMax = 10000

// Embedding is one vector with its provenance. Hash is the SHA-256 of
// the source text and doubles as the cache key.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string
}

// EmbeddingRequest asks for a single text to be embedded. Model
// overrides the provider default when set.
type EmbeddingRequest struct {
	Text  string
	Model string
}

// BatchEmbeddingRequest embeds several chunk texts in one provider call.
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse carries the embeddings in input order.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder turns text into vectors. Query embedding and chunk embedding
// go through the same implementation so scores stay comparable.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch embeds multiple texts in one round trip where the
	// provider supports it.
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension is the vector width this provider produces.
	Dimension() int

	Provider() string
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache is an LRU of embeddings keyed by content hash. Re-ingesting an
// unchanged article hits the cache instead of the provider, which is
// the common case for URL-keyed upserts.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// NewCache creates an embedding cache holding at most maxLen vectors.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheMax
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		// lru.New only fails on a non-positive size
		cache, _ = lru.New[string, *Embedding](defaultCacheMax)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached embedding for hash. The vector is
// cloned so callers cannot mutate what later hits read.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	return emb.clone(), true
}

// Set stores an embedding; the LRU evicts the oldest entry at capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
}

// Size returns the current number of cached embeddings.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.cache.Purge()
}

func (e *Embedding) clone() *Embedding {
	vector := make([]float32, len(e.Vector))
	copy(vector, e.Vector)
	return &Embedding{
		Vector:    vector,
		Dimension: e.Dimension,
		Provider:  e.Provider,
		Model:     e.Model,
		Hash:      e.Hash,
	}
}

// ComputeHash derives the cache key for a piece of text.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateRequest rejects empty text before it reaches a provider.
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty batches and empty members; a blank
// chunk would otherwise burn a provider call on nothing.
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}
