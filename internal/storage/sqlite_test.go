package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func testEntry(nsID int64, key, title string) *Entry {
	return &Entry{
		EntryID:     uuid.NewString(),
		NamespaceID: nsID,
		Key:         key,
		Title:       title,
		Status:      EntryStatusReady,
		Category:    "research",
		AddedBy:     "U123",
		AddedByName: "Dana",
		SourceURL:   key,
	}
}

func testChunks(contents ...string) []*Chunk {
	chunks := make([]*Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = &Chunk{Position: i, Content: c}
	}
	return chunks
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
}

func TestEnsureNamespace(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)
	assert.Greater(t, ns.ID, int64(0))
	assert.Equal(t, "research", ns.Name)

	// Second call returns the same row
	again, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)
	assert.Equal(t, ns.ID, again.ID)
}

func TestGetNamespace_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.GetNamespace(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNamespaces(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	for _, name := range []string{"research", "competitors", "internal"} {
		_, err := storage.EnsureNamespace(ctx, name)
		require.NoError(t, err)
	}

	namespaces, err := storage.ListNamespaces(ctx)
	require.NoError(t, err)
	require.Len(t, namespaces, 3)
	// Sorted by name
	assert.Equal(t, "competitors", namespaces[0].Name)
	assert.Equal(t, "internal", namespaces[1].Name)
	assert.Equal(t, "research", namespaces[2].Name)
}

func TestUpsertEntry_Create(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "Post A")
	chunks := testChunks("first paragraph", "second paragraph")

	replaced, err := storage.UpsertEntry(ctx, entry, chunks)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Greater(t, entry.ID, int64(0))
	for _, chunk := range chunks {
		assert.Greater(t, chunk.ID, int64(0))
		assert.Equal(t, entry.ID, chunk.EntryID)
	}
}

func TestUpsertEntry_ReplaceSameKey(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	first := testEntry(ns.ID, "https://example.com/a", "Post A v1")
	_, err = storage.UpsertEntry(ctx, first, testChunks("old content", "more old content"))
	require.NoError(t, err)

	second := testEntry(ns.ID, "https://example.com/a", "Post A v2")
	replaced, err := storage.UpsertEntry(ctx, second, testChunks("new content"))
	require.NoError(t, err)
	assert.True(t, replaced)

	// Only one entry remains for the key, carrying the new title
	count, err := storage.CountEntries(ctx, ns.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := storage.GetEntryByKey(ctx, ns.ID, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Post A v2", got.Title)
	assert.Equal(t, second.EntryID, got.EntryID)

	// Old chunks are gone
	chunks, err := storage.ListChunksByEntry(ctx, second.EntryID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new content", chunks[0].Content)
}

func TestUpsertEntry_SameKeyDifferentNamespace(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	research, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)
	competitors, err := storage.EnsureNamespace(ctx, "competitors")
	require.NoError(t, err)

	_, err = storage.UpsertEntry(ctx, testEntry(research.ID, "https://example.com/a", "A"), testChunks("x"))
	require.NoError(t, err)
	replaced, err := storage.UpsertEntry(ctx, testEntry(competitors.ID, "https://example.com/a", "A"), testChunks("x"))
	require.NoError(t, err)
	assert.False(t, replaced)
}

func TestGetEntry_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.GetEntry(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEntries_Ordering(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		entry := testEntry(ns.ID, fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("Post %d", i))
		_, err := storage.UpsertEntry(ctx, entry, testChunks("content"))
		require.NoError(t, err)
	}

	newest, err := storage.ListEntries(ctx, ns.ID, 3, true)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, "Post 4", newest[0].Title)
	assert.Equal(t, "Post 2", newest[2].Title)

	oldest, err := storage.ListEntries(ctx, ns.ID, 3, false)
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, "Post 0", oldest[0].Title)
}

func TestListRecentEntries_AcrossNamespaces(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	research, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)
	internal, err := storage.EnsureNamespace(ctx, "internal")
	require.NoError(t, err)

	_, err = storage.UpsertEntry(ctx, testEntry(research.ID, "https://example.com/r", "R"), testChunks("x"))
	require.NoError(t, err)
	_, err = storage.UpsertEntry(ctx, testEntry(internal.ID, "https://example.com/i", "I"), testChunks("x"))
	require.NoError(t, err)

	recent, err := storage.ListRecentEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "I", recent[0].Title)
}

func TestDeleteEntry(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	_, err = storage.UpsertEntry(ctx, entry, testChunks("one", "two"))
	require.NoError(t, err)

	require.NoError(t, storage.DeleteEntry(ctx, entry.EntryID))

	_, err = storage.GetEntry(ctx, entry.EntryID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Cascade removed the chunks
	chunks, err := storage.ListChunksByEntry(ctx, entry.EntryID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Deleting again reports not found
	assert.ErrorIs(t, storage.DeleteEntry(ctx, entry.EntryID), ErrNotFound)
}

func TestDeleteEntryByKey(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	_, err = storage.UpsertEntry(ctx, entry, testChunks("one", "two"))
	require.NoError(t, err)

	deleted, err := storage.DeleteEntryByKey(ctx, ns.ID, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = storage.GetEntry(ctx, entry.EntryID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A key nobody stored is a no-op, not an error
	deleted, err = storage.DeleteEntryByKey(ctx, ns.ID, "https://example.com/missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	// Only a missing namespace is an error
	_, err = storage.DeleteEntryByKey(ctx, ns.ID+999, "https://example.com/a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetEntryStatus(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	entry.Status = EntryStatusPending
	_, err = storage.UpsertEntry(ctx, entry, testChunks("x"))
	require.NoError(t, err)

	require.NoError(t, storage.SetEntryStatus(ctx, entry.EntryID, EntryStatusReady))

	got, err := storage.GetEntry(ctx, entry.EntryID)
	require.NoError(t, err)
	assert.Equal(t, EntryStatusReady, got.Status)
}

func TestGetChunkWithNeighbors(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	chunks := testChunks("alpha", "beta", "gamma")
	_, err = storage.UpsertEntry(ctx, entry, chunks)
	require.NoError(t, err)

	prev, match, next, err := storage.GetChunkWithNeighbors(ctx, chunks[1].ID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "alpha", prev.Content)
	assert.Equal(t, "beta", match.Content)
	assert.Equal(t, "gamma", next.Content)

	// First chunk has no predecessor
	prev, match, next, err = storage.GetChunkWithNeighbors(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, "alpha", match.Content)
	require.NotNil(t, next)
	assert.Equal(t, "beta", next.Content)
}

func TestUpsertEmbedding(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	chunks := testChunks("alpha")
	_, err = storage.UpsertEntry(ctx, entry, chunks)
	require.NoError(t, err)

	embedding := &Embedding{
		ChunkID:   chunks[0].ID,
		Vector:    SerializeVector([]float32{0.1, 0.2, 0.3}),
		Dimension: 3,
		Provider:  "openai",
		Model:     "text-embedding-3-small",
	}
	require.NoError(t, storage.UpsertEmbedding(ctx, embedding))

	got, err := storage.GetEmbedding(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimension)
	assert.Equal(t, "openai", got.Provider)

	// Upsert replaces the vector in place
	embedding.Vector = SerializeVector([]float32{0.9, 0.9, 0.9})
	require.NoError(t, storage.UpsertEmbedding(ctx, embedding))

	count, err := storage.CountEmbeddings(ctx, ns.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	_, err = tx.UpsertEntry(ctx, entry, testChunks("x"))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	count, err := storage.CountEntries(ctx, ns.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEntryTimestamps(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	ns, err := storage.EnsureNamespace(ctx, "research")
	require.NoError(t, err)

	entry := testEntry(ns.ID, "https://example.com/a", "A")
	before := time.Now().Add(-time.Second)
	_, err = storage.UpsertEntry(ctx, entry, testChunks("x"))
	require.NoError(t, err)

	got, err := storage.GetEntry(ctx, entry.EntryID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.After(before))
}
