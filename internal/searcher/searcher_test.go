package searcher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gistlabs/knowbase/internal/embedder"
	"github.com/gistlabs/knowbase/internal/storage"
	"github.com/gistlabs/knowbase/pkg/types"
)

var testNamespaces = []string{"competitors", "research", "internal", "general"}

// stubEmbedder returns canned vectors per query text; unknown texts get a
// vector orthogonal to everything seeded by the tests.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vec, ok := s.vectors[req.Text]
	if !ok {
		vec = []float32{0, 0, 1}
	}
	return &embedder.Embedding{Vector: vec, Dimension: len(vec), Provider: "stub", Model: "stub"}, nil
}

func (s *stubEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := s.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "stub", Model: "stub"}, nil
}

func (s *stubEmbedder) Dimension() int   { return 3 }
func (s *stubEmbedder) Provider() string { return "stub" }
func (s *stubEmbedder) Model() string    { return "stub" }
func (s *stubEmbedder) Close() error     { return nil }

func setupSearcher(t *testing.T, emb embedder.Embedder) (*Searcher, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := New(store, emb, Config{Namespaces: testNamespaces}, nil)
	return s, store
}

// seedEntry stores a ready entry with one embedded chunk. A nil vector
// seeds the entry without any embedding.
func seedEntry(t *testing.T, store *storage.SQLiteStorage, namespace, title, url string, vec []float32) {
	t.Helper()
	ctx := context.Background()

	ns, err := store.EnsureNamespace(ctx, namespace)
	require.NoError(t, err)

	entry := &storage.Entry{
		EntryID:     uuid.NewString(),
		NamespaceID: ns.ID,
		Key:         url,
		Title:       title,
		Status:      storage.EntryStatusReady,
		Category:    namespace,
		SourceURL:   url,
	}
	chunks := []*storage.Chunk{{Position: 0, Content: "content about " + title}}
	_, err = store.UpsertEntry(ctx, entry, chunks)
	require.NoError(t, err)

	if vec != nil {
		err = store.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunks[0].ID,
			Vector:    storage.SerializeVector(vec),
			Dimension: len(vec),
			Provider:  "stub",
			Model:     "stub",
		})
		require.NoError(t, err)
	}
}

func TestSearch_ConfidentVectorShortCircuits(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"alpha report": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	// Cosine vs {1,0,0} is 0.894, comfortably above the confidence bar.
	// The title would also score lexically, but must never be consulted.
	seedEntry(t, store, "research", "Alpha Report", "https://example.com/alpha", []float32{1, 0.5, 0})

	resp, err := s.Search(context.Background(), "alpha report", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodVector, resp.Method)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.MethodVector, resp.Results[0].Method)
	assert.Equal(t, "Alpha Report", resp.Results[0].Title)
	assert.Equal(t, "https://example.com/alpha", resp.Results[0].URL)
	assert.GreaterOrEqual(t, resp.Results[0].Score, 0.5)
	assert.Contains(t, resp.Results[0].Preview, "content about Alpha Report")
}

func TestSearch_VectorDedupesChunksOfOneEntry(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"acme pricing": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)
	ctx := context.Background()

	// One entry, two chunks, both scoring above the floor. The entry must
	// surface once, carried by its best chunk.
	ns, err := store.EnsureNamespace(ctx, "competitors")
	require.NoError(t, err)
	entry := &storage.Entry{
		EntryID:     uuid.NewString(),
		NamespaceID: ns.ID,
		Key:         "https://example.com/acme",
		Title:       "Acme Pricing",
		Status:      storage.EntryStatusReady,
		Category:    "competitors",
		SourceURL:   "https://example.com/acme",
	}
	chunks := []*storage.Chunk{
		{Position: 0, Content: "acme pricing tiers"},
		{Position: 1, Content: "acme pricing discounts"},
	}
	_, err = store.UpsertEntry(ctx, entry, chunks)
	require.NoError(t, err)
	// Cosine 0.981 and 1.0 against the query vector
	for i, vec := range [][]float32{{1, 0.2, 0}, {1, 0, 0}} {
		require.NoError(t, store.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunks[i].ID,
			Vector:    storage.SerializeVector(vec),
			Dimension: len(vec),
			Provider:  "stub",
			Model:     "stub",
		}))
	}

	resp, err := s.Search(ctx, "acme pricing", "competitors", 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodVector, resp.Method)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://example.com/acme", resp.Results[0].URL)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-6)
}

func TestSearch_HybridMergeDedup(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"jasper pricing": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	// Both vector hits score 0.447: above the floor, below the bar, so
	// the strong title match (1.2) takes the lead.
	seedEntry(t, store, "competitors", "Jasper Pricing Overview", "https://example.com/u1", []float32{1, 2, 0})
	seedEntry(t, store, "competitors", "Unrelated Doc", "https://example.com/u2", []float32{1, 2, 0})

	resp, err := s.Search(context.Background(), "jasper pricing", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodHybrid, resp.Method)
	require.Len(t, resp.Results, 2)

	// Title match first, vector hit for the other URL appended; u1 must
	// not appear twice.
	assert.Equal(t, types.MethodTitleMatch, resp.Results[0].Method)
	assert.Equal(t, "https://example.com/u1", resp.Results[0].URL)
	assert.Equal(t, types.MethodVector, resp.Results[1].Method)
	assert.Equal(t, "https://example.com/u2", resp.Results[1].URL)
}

func TestSearch_TitleMatchFallback(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	s, store := setupSearcher(t, emb)

	// Embedding of the query is orthogonal to the stored vector, so the
	// vector stage comes back empty. One of three keywords matches the
	// title: 0.433, enough to return but not to lead a hybrid.
	seedEntry(t, store, "research", "Flux Industries Annual Report", "https://example.com/flux", []float32{1, 0, 0})

	resp, err := s.Search(context.Background(), "quantum flux capacitor", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodTitleMatch, resp.Method)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Flux Industries Annual Report", resp.Results[0].Title)
	assert.InDelta(t, 1.0/3.0+0.1, resp.Results[0].Score, 1e-9)
}

func TestSearch_StopWordQuerySkipsLexicalStage(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	s, store := setupSearcher(t, emb)

	// This title would trivially match the query's words, but the query
	// reduces to zero keywords so the lexical stage never runs.
	seedEntry(t, store, "general", "what is this", "https://example.com/wit", []float32{1, 0, 0})

	resp, err := s.Search(context.Background(), "what is this", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodNone, resp.Method)
	assert.Empty(t, resp.Results)
}

func TestSearch_ScoreFloor(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"zebra migration": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	// Cosine vs the query is 0.347, below the 0.4 floor.
	seedEntry(t, store, "research", "Completely Different Subject", "https://example.com/low", []float32{1, 2.7, 0})

	resp, err := s.Search(context.Background(), "zebra migration", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodNone, resp.Method)
	assert.Empty(t, resp.Results)
}

func TestSearch_NamespaceIsolation(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"alpha report": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	seedEntry(t, store, "research", "Alpha Report", "https://example.com/alpha", []float32{1, 0.1, 0})

	ctx := context.Background()

	resp, err := s.Search(ctx, "alpha report", "internal", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	resp, err = s.Search(ctx, "alpha report", "research", 5)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "research", resp.Results[0].Namespace)

	resp, err = s.Search(ctx, "alpha report", ScopeAll, 5)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSearch_UnknownNamespaceDegrades(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	s, _ := setupSearcher(t, emb)

	resp, err := s.Search(context.Background(), "anything at all", "nonexistent", 5)
	require.NoError(t, err)
	assert.Equal(t, types.MethodNone, resp.Method)
	assert.Empty(t, resp.Results)
}

func TestSearch_LimitRespected(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	for _, suffix := range []string{"a", "b", "c", "d"} {
		seedEntry(t, store, "research", "Alpha "+suffix, "https://example.com/"+suffix, []float32{1, 0.1, 0})
	}

	resp, err := s.Search(context.Background(), "alpha", ScopeAll, 2)
	require.NoError(t, err)
	assert.Equal(t, types.MethodVector, resp.Method)
	assert.LessOrEqual(t, len(resp.Results), 2)
}

func TestSearch_ResultsSortedByScore(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	seedEntry(t, store, "research", "Mid", "https://example.com/mid", []float32{1, 1, 0})
	seedEntry(t, store, "competitors", "Close", "https://example.com/close", []float32{1, 0.1, 0})

	resp, err := s.Search(context.Background(), "alpha", ScopeAll, 5)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Close", resp.Results[0].Title)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestSearch_EmbedderFailureFallsBackToTitles(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("provider down")}
	s, store := setupSearcher(t, emb)

	seedEntry(t, store, "research", "Jasper Pricing Overview", "https://example.com/u1", nil)

	resp, err := s.Search(context.Background(), "jasper pricing", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodHybrid, resp.Method)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.MethodTitleMatch, resp.Results[0].Method)
}

func TestSearch_TotalFailureSurfacesUpstreamError(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("provider down")}
	s, _ := setupSearcher(t, emb)

	// Stop-word query keeps the lexical stage from running, and the
	// embedder failure kills the vector stage: nothing succeeded.
	_, err := s.Search(context.Background(), "what is this", ScopeAll, 5)
	require.Error(t, err)

	var upstream *types.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestSearch_EmptyQueryDegradesToNone(t *testing.T) {
	// Providers reject an empty string before calling upstream; the
	// cascade treats that as zero vector hits, not a failed stage.
	emb := &stubEmbedder{err: embedder.ErrEmptyText}
	s, store := setupSearcher(t, emb)

	seedEntry(t, store, "research", "Alpha Report", "https://example.com/alpha", []float32{1, 0, 0})

	resp, err := s.Search(context.Background(), "", ScopeAll, 5)
	require.NoError(t, err)

	assert.Equal(t, types.MethodNone, resp.Method)
	assert.Empty(t, resp.Results)
}

func TestSearch_CacheHitAndInvalidation(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"alpha report": {1, 0, 0},
	}}
	s, store := setupSearcher(t, emb)

	seedEntry(t, store, "research", "Alpha Report", "https://example.com/alpha", []float32{1, 0.1, 0})

	ctx := context.Background()

	first, err := s.Search(ctx, "alpha report", ScopeAll, 5)
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)

	second, err := s.Search(ctx, "alpha report", ScopeAll, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls, "second search must be served from cache")
	assert.Equal(t, first.Results, second.Results)

	// Different limit is a different cache key
	_, err = s.Search(ctx, "alpha report", ScopeAll, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls)

	s.InvalidateCache()
	_, err = s.Search(ctx, "alpha report", ScopeAll, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, emb.calls, "purged cache must re-run the cascade")
}

func TestSearch_DefaultAndMaxLimit(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	s, _ := setupSearcher(t, emb)

	ctx := context.Background()

	resp, err := s.Search(ctx, "anything here", ScopeAll, 0)
	require.NoError(t, err)
	assert.Equal(t, types.MethodNone, resp.Method)

	resp, err = s.Search(ctx, "anything here", ScopeAll, 10000)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}
