package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gistlabs/knowbase/pkg/types"
)

// ErrNotFound is returned when a requested entity doesn't exist
var ErrNotFound = types.ErrNotFound

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Namespace operations

// ensureNamespaceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) ensureNamespaceWithQuerier(ctx context.Context, q querier, name string) (*Namespace, error) {
	query := `
		INSERT INTO namespaces (name, created_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id, name, created_at
	`
	var ns Namespace
	err := q.QueryRowContext(ctx, query, name, time.Now()).Scan(&ns.ID, &ns.Name, &ns.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure namespace: %w", err)
	}
	return &ns, nil
}

func (s *SQLiteStorage) EnsureNamespace(ctx context.Context, name string) (*Namespace, error) {
	return s.ensureNamespaceWithQuerier(ctx, s.querier(), name)
}

// getNamespaceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getNamespaceWithQuerier(ctx context.Context, q querier, name string) (*Namespace, error) {
	query := `SELECT id, name, created_at FROM namespaces WHERE name = ?`
	var ns Namespace
	err := q.QueryRowContext(ctx, query, name).Scan(&ns.ID, &ns.Name, &ns.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ns, nil
}

func (s *SQLiteStorage) GetNamespace(ctx context.Context, name string) (*Namespace, error) {
	return s.getNamespaceWithQuerier(ctx, s.querier(), name)
}

// listNamespacesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listNamespacesWithQuerier(ctx context.Context, q querier) ([]*Namespace, error) {
	query := `SELECT id, name, created_at FROM namespaces ORDER BY name`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	namespaces := make([]*Namespace, 0)
	for rows.Next() {
		var ns Namespace
		if err := rows.Scan(&ns.ID, &ns.Name, &ns.CreatedAt); err != nil {
			return nil, err
		}
		namespaces = append(namespaces, &ns)
	}
	return namespaces, rows.Err()
}

func (s *SQLiteStorage) ListNamespaces(ctx context.Context) ([]*Namespace, error) {
	return s.listNamespacesWithQuerier(ctx, s.querier())
}

// Entry operations

// upsertEntryWithQuerier replaces any existing entry sharing the entry's
// (namespace, key) pair and writes the new chunk set. Old chunks and their
// embeddings go away via ON DELETE CASCADE.
func (s *SQLiteStorage) upsertEntryWithQuerier(ctx context.Context, q querier, entry *Entry, chunks []*Chunk) (bool, error) {
	var existingID int64
	replaced := true
	err := q.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE namespace_id = ? AND key = ?`,
		entry.NamespaceID, entry.Key).Scan(&existingID)
	if err == sql.ErrNoRows {
		replaced = false
	} else if err != nil {
		return false, err
	}

	now := time.Now()
	if replaced {
		// Replace in place so the row keeps its created_at for recency
		// ordering of the original ingestion.
		query := `
			UPDATE entries
			SET entry_id = ?, title = ?, status = ?, category = ?, added_by = ?,
			    added_by_name = ?, channel_id = ?, source_url = ?, updated_at = ?
			WHERE id = ?
		`
		if _, err := q.ExecContext(ctx, query,
			entry.EntryID, entry.Title, entry.Status, entry.Category, entry.AddedBy,
			entry.AddedByName, entry.ChannelID, entry.SourceURL, now, existingID); err != nil {
			return false, fmt.Errorf("failed to replace entry: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE entry_id = ?`, existingID); err != nil {
			return false, fmt.Errorf("failed to clear chunks: %w", err)
		}
		entry.ID = existingID
		entry.UpdatedAt = now
	} else {
		query := `
			INSERT INTO entries (
				entry_id, namespace_id, key, title, status, category,
				added_by, added_by_name, channel_id, source_url, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := q.ExecContext(ctx, query,
			entry.EntryID, entry.NamespaceID, entry.Key, entry.Title, entry.Status,
			entry.Category, entry.AddedBy, entry.AddedByName, entry.ChannelID,
			entry.SourceURL, now, now)
		if err != nil {
			return false, fmt.Errorf("failed to create entry: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return false, err
		}
		entry.ID = id
		entry.CreatedAt = now
		entry.UpdatedAt = now
	}

	for _, chunk := range chunks {
		result, err := q.ExecContext(ctx,
			`INSERT INTO chunks (entry_id, position, content, created_at) VALUES (?, ?, ?, ?)`,
			entry.ID, chunk.Position, chunk.Content, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert chunk %d: %w", chunk.Position, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return false, err
		}
		chunk.ID = id
		chunk.EntryID = entry.ID
		chunk.CreatedAt = now
	}

	return replaced, nil
}

// UpsertEntry runs the replace-and-rechunk in its own transaction so a
// failure partway never leaves an entry without its chunks.
func (s *SQLiteStorage) UpsertEntry(ctx context.Context, entry *Entry, chunks []*Chunk) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	replaced, err := s.upsertEntryWithQuerier(ctx, tx, entry, chunks)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return replaced, nil
}

const entryColumns = `id, entry_id, namespace_id, key, title, status, category,
	       added_by, added_by_name, channel_id, source_url, created_at, updated_at`

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	var entry Entry
	var category, addedBy, addedByName, channelID, sourceURL sql.NullString
	err := row.Scan(
		&entry.ID, &entry.EntryID, &entry.NamespaceID, &entry.Key, &entry.Title,
		&entry.Status, &category, &addedBy, &addedByName, &channelID, &sourceURL,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Category = category.String
	entry.AddedBy = addedBy.String
	entry.AddedByName = addedByName.String
	entry.ChannelID = channelID.String
	entry.SourceURL = sourceURL.String
	return &entry, nil
}

// getEntryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEntryWithQuerier(ctx context.Context, q querier, entryID string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE entry_id = ?`
	entry, err := scanEntry(q.QueryRowContext(ctx, query, entryID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLiteStorage) GetEntry(ctx context.Context, entryID string) (*Entry, error) {
	return s.getEntryWithQuerier(ctx, s.querier(), entryID)
}

// getEntryByRowIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEntryByRowIDWithQuerier(ctx context.Context, q querier, id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`
	entry, err := scanEntry(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntryByRowID resolves a chunk's owning entry from its internal row id.
func (s *SQLiteStorage) GetEntryByRowID(ctx context.Context, id int64) (*Entry, error) {
	return s.getEntryByRowIDWithQuerier(ctx, s.querier(), id)
}

// getEntryByKeyWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEntryByKeyWithQuerier(ctx context.Context, q querier, namespaceID int64, key string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE namespace_id = ? AND key = ?`
	entry, err := scanEntry(q.QueryRowContext(ctx, query, namespaceID, key))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLiteStorage) GetEntryByKey(ctx context.Context, namespaceID int64, key string) (*Entry, error) {
	return s.getEntryByKeyWithQuerier(ctx, s.querier(), namespaceID, key)
}

// listEntriesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listEntriesWithQuerier(ctx context.Context, q querier, namespaceID int64, limit int, newestFirst bool) ([]*Entry, error) {
	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	query := `SELECT ` + entryColumns + ` FROM entries WHERE namespace_id = ?
		ORDER BY created_at ` + order + `, id ` + order + ` LIMIT ?`
	rows, err := q.QueryContext(ctx, query, namespaceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) ListEntries(ctx context.Context, namespaceID int64, limit int, newestFirst bool) ([]*Entry, error) {
	return s.listEntriesWithQuerier(ctx, s.querier(), namespaceID, limit, newestFirst)
}

// listRecentEntriesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listRecentEntriesWithQuerier(ctx context.Context, q querier, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) ListRecentEntries(ctx context.Context, limit int) ([]*Entry, error) {
	return s.listRecentEntriesWithQuerier(ctx, s.querier(), limit)
}

// deleteEntryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEntryWithQuerier(ctx context.Context, q querier, entryID string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM entries WHERE entry_id = ?`, entryID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteEntry(ctx context.Context, entryID string) error {
	return s.deleteEntryWithQuerier(ctx, s.querier(), entryID)
}

// deleteEntryByKeyWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEntryByKeyWithQuerier(ctx context.Context, q querier, namespaceID int64, key string) (bool, error) {
	var nsID int64
	err := q.QueryRowContext(ctx, `SELECT id FROM namespaces WHERE id = ?`, namespaceID).Scan(&nsID)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM entries WHERE namespace_id = ? AND key = ?`, namespaceID, key)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteEntryByKey removes the entry stored under key in a namespace.
// A key nobody stored reports false without error; only a missing
// namespace is ErrNotFound.
func (s *SQLiteStorage) DeleteEntryByKey(ctx context.Context, namespaceID int64, key string) (bool, error) {
	return s.deleteEntryByKeyWithQuerier(ctx, s.querier(), namespaceID, key)
}

// setEntryStatusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) setEntryStatusWithQuerier(ctx context.Context, q querier, entryID string, status string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE entries SET status = ?, updated_at = ? WHERE entry_id = ?`,
		status, time.Now(), entryID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) SetEntryStatus(ctx context.Context, entryID string, status string) error {
	return s.setEntryStatusWithQuerier(ctx, s.querier(), entryID, status)
}

// countEntriesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) countEntriesWithQuerier(ctx context.Context, q querier, namespaceID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE namespace_id = ?`, namespaceID).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountEntries(ctx context.Context, namespaceID int64) (int, error) {
	return s.countEntriesWithQuerier(ctx, s.querier(), namespaceID)
}

// Chunk operations

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT id, entry_id, position, content, created_at FROM chunks WHERE id = ?`
	var chunk Chunk
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&chunk.ID, &chunk.EntryID, &chunk.Position, &chunk.Content, &chunk.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// getChunkWithNeighborsWithQuerier loads the chunk plus the chunks at
// position-1 and position+1 of the same entry. Missing neighbors come
// back nil, not as errors.
func (s *SQLiteStorage) getChunkWithNeighborsWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, *Chunk, *Chunk, error) {
	match, err := s.getChunkWithQuerier(ctx, q, chunkID)
	if err != nil {
		return nil, nil, nil, err
	}

	query := `SELECT id, entry_id, position, content, created_at FROM chunks
		WHERE entry_id = ? AND position IN (?, ?)`
	rows, err := q.QueryContext(ctx, query, match.EntryID, match.Position-1, match.Position+1)
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var prev, next *Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(&chunk.ID, &chunk.EntryID, &chunk.Position, &chunk.Content, &chunk.CreatedAt); err != nil {
			return nil, nil, nil, err
		}
		if chunk.Position == match.Position-1 {
			prev = &chunk
		} else {
			next = &chunk
		}
	}
	return prev, match, next, rows.Err()
}

func (s *SQLiteStorage) GetChunkWithNeighbors(ctx context.Context, chunkID int64) (*Chunk, *Chunk, *Chunk, error) {
	return s.getChunkWithNeighborsWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByEntryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByEntryWithQuerier(ctx context.Context, q querier, entryID string) ([]*Chunk, error) {
	query := `
		SELECT c.id, c.entry_id, c.position, c.content, c.created_at
		FROM chunks c
		JOIN entries e ON c.entry_id = e.id
		WHERE e.entry_id = ?
		ORDER BY c.position
	`
	rows, err := q.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(&chunk.ID, &chunk.EntryID, &chunk.Position, &chunk.Content, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByEntry(ctx context.Context, entryID string) ([]*Chunk, error) {
	return s.listChunksByEntryWithQuerier(ctx, s.querier(), entryID)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if embedding.ID == 0 {
		id, err := result.LastInsertId()
		if err == nil {
			embedding.ID = id
		}
	}

	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

// countEmbeddingsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) countEmbeddingsWithQuerier(ctx context.Context, q querier, namespaceID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings emb
		JOIN chunks c ON emb.chunk_id = c.id
		JOIN entries e ON c.entry_id = e.id
		WHERE e.namespace_id = ?
	`, namespaceID).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountEmbeddings(ctx context.Context, namespaceID int64) (int, error) {
	return s.countEmbeddingsWithQuerier(ctx, s.querier(), namespaceID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, namespaceID int64, queryVector []float32, limit int, minScore float64) ([]VectorResult, error) {
	// Implementation moved to separate file for clarity
	return searchVector(ctx, s.db, namespaceID, queryVector, limit, minScore)
}

// Transaction implementations - delegate to main storage

// Write operations use the internal helper that uses querier()

func (t *sqliteTx) EnsureNamespace(ctx context.Context, name string) (*Namespace, error) {
	return t.storage.ensureNamespaceWithQuerier(ctx, t.querier(), name)
}

func (t *sqliteTx) GetNamespace(ctx context.Context, name string) (*Namespace, error) {
	return t.storage.getNamespaceWithQuerier(ctx, t.querier(), name)
}

func (t *sqliteTx) ListNamespaces(ctx context.Context) ([]*Namespace, error) {
	return t.storage.listNamespacesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertEntry(ctx context.Context, entry *Entry, chunks []*Chunk) (bool, error) {
	return t.storage.upsertEntryWithQuerier(ctx, t.querier(), entry, chunks)
}

func (t *sqliteTx) GetEntry(ctx context.Context, entryID string) (*Entry, error) {
	return t.storage.getEntryWithQuerier(ctx, t.querier(), entryID)
}

func (t *sqliteTx) GetEntryByRowID(ctx context.Context, id int64) (*Entry, error) {
	return t.storage.getEntryByRowIDWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) GetEntryByKey(ctx context.Context, namespaceID int64, key string) (*Entry, error) {
	return t.storage.getEntryByKeyWithQuerier(ctx, t.querier(), namespaceID, key)
}

func (t *sqliteTx) ListEntries(ctx context.Context, namespaceID int64, limit int, newestFirst bool) ([]*Entry, error) {
	return t.storage.listEntriesWithQuerier(ctx, t.querier(), namespaceID, limit, newestFirst)
}

func (t *sqliteTx) ListRecentEntries(ctx context.Context, limit int) ([]*Entry, error) {
	return t.storage.listRecentEntriesWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) DeleteEntry(ctx context.Context, entryID string) error {
	return t.storage.deleteEntryWithQuerier(ctx, t.querier(), entryID)
}

func (t *sqliteTx) DeleteEntryByKey(ctx context.Context, namespaceID int64, key string) (bool, error) {
	return t.storage.deleteEntryByKeyWithQuerier(ctx, t.querier(), namespaceID, key)
}

func (t *sqliteTx) SetEntryStatus(ctx context.Context, entryID string, status string) error {
	return t.storage.setEntryStatusWithQuerier(ctx, t.querier(), entryID, status)
}

func (t *sqliteTx) CountEntries(ctx context.Context, namespaceID int64) (int, error) {
	return t.storage.countEntriesWithQuerier(ctx, t.querier(), namespaceID)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) GetChunkWithNeighbors(ctx context.Context, chunkID int64) (*Chunk, *Chunk, *Chunk, error) {
	return t.storage.getChunkWithNeighborsWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByEntry(ctx context.Context, entryID string) ([]*Chunk, error) {
	return t.storage.listChunksByEntryWithQuerier(ctx, t.querier(), entryID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.GetEmbedding(ctx, chunkID)
}

func (t *sqliteTx) CountEmbeddings(ctx context.Context, namespaceID int64) (int, error) {
	return t.storage.countEmbeddingsWithQuerier(ctx, t.querier(), namespaceID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, namespaceID int64, vector []float32, limit int, minScore float64) ([]VectorResult, error) {
	return t.storage.SearchVector(ctx, namespaceID, vector, limit, minScore)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	// We return an error to prevent accidental misuse
	// If savepoints are needed in the future, implement here
	return nil, errors.New("nested transactions not supported")
}
