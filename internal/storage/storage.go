package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting and querying knowledge entries
type Storage interface {
	// Namespace operations
	EnsureNamespace(ctx context.Context, name string) (*Namespace, error)
	GetNamespace(ctx context.Context, name string) (*Namespace, error)
	ListNamespaces(ctx context.Context) ([]*Namespace, error)

	// Entry operations
	UpsertEntry(ctx context.Context, entry *Entry, chunks []*Chunk) (replaced bool, err error)
	GetEntry(ctx context.Context, entryID string) (*Entry, error)
	GetEntryByRowID(ctx context.Context, id int64) (*Entry, error)
	GetEntryByKey(ctx context.Context, namespaceID int64, key string) (*Entry, error)
	ListEntries(ctx context.Context, namespaceID int64, limit int, newestFirst bool) ([]*Entry, error)
	ListRecentEntries(ctx context.Context, limit int) ([]*Entry, error)
	DeleteEntry(ctx context.Context, entryID string) error
	// DeleteEntryByKey removes the entry stored under key in a
	// namespace. A missing key reports false without error; a missing
	// namespace is ErrNotFound.
	DeleteEntryByKey(ctx context.Context, namespaceID int64, key string) (bool, error)
	SetEntryStatus(ctx context.Context, entryID string, status string) error
	CountEntries(ctx context.Context, namespaceID int64) (int, error)

	// Chunk operations
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	GetChunkWithNeighbors(ctx context.Context, chunkID int64) (prev, match, next *Chunk, err error)
	ListChunksByEntry(ctx context.Context, entryID string) ([]*Chunk, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	CountEmbeddings(ctx context.Context, namespaceID int64) (int, error)

	// Search operations
	SearchVector(ctx context.Context, namespaceID int64, vector []float32, limit int, minScore float64) ([]VectorResult, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Namespace represents an isolated partition of the knowledge base.
// Namespaces are created lazily by ingestion, never by search.
type Namespace struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// EntryStatusReady and EntryStatusPending are the lifecycle states of an
// entry. Pending entries are stored but awaiting embeddings; they are
// visible to listing and lexical search but not to vector search.
const (
	EntryStatusReady   = "ready"
	EntryStatusPending = "pending"
)

// Entry represents one stored document
type Entry struct {
	ID          int64
	EntryID     string // UUID, stable across replacements of other entries
	NamespaceID int64
	Key         string // dedup key, the source URL when one exists
	Title       string
	Status      string
	Category    string
	AddedBy     string
	AddedByName string
	ChannelID   string
	SourceURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk represents one contiguous section of an entry's content
type Chunk struct {
	ID        int64
	EntryID   int64 // row ID of the owning entry
	Position  int   // 0-based order within the entry
	Content   string
	CreatedAt time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}
