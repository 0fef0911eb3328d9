package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gistlabs/knowbase/internal/chunker"
	"github.com/gistlabs/knowbase/internal/embedder"
	"github.com/gistlabs/knowbase/internal/metrics"
	"github.com/gistlabs/knowbase/internal/storage"
	"github.com/gistlabs/knowbase/pkg/types"
)

const (
	// DefaultDeleteScanWindow bounds how many recent entries per namespace
	// a delete-by-URL inspects. Entries older than the window cannot be
	// found by URL deletion; widening the window trades scan latency for
	// reach.
	DefaultDeleteScanWindow = 100

	// DefaultSyncChunkThreshold is the chunk count above which embedding
	// is deferred to a background goroutine and the entry stays pending
	// until it completes.
	DefaultSyncChunkThreshold = 8

	// DefaultRecentLimit caps the recent-entries slice of the stats rollup.
	DefaultRecentLimit = 20

	// DefaultListLimit is used when a listing request gives no limit.
	DefaultListLimit = 20
)

// CacheInvalidator is notified after every successful write so stale
// search responses are never served. The searcher's query cache
// satisfies it.
type CacheInvalidator interface {
	InvalidateCache()
}

// Config tunes a Service. Namespaces is the configured namespace list
// shared with the searcher; zero values elsewhere fall back to defaults.
type Config struct {
	Namespaces         []string
	DeleteScanWindow   int
	SyncChunkThreshold int
	RecentLimit        int
}

// IngestRequest carries one document into the knowledge base. The URL
// doubles as the idempotency key: re-ingesting a URL replaces the prior
// entry in its namespace.
type IngestRequest struct {
	URL         string
	Title       string // defaults to the URL when empty
	Content     string
	Category    string // must name a configured namespace
	AddedBy     string
	AddedByName string
	ChannelID   string
}

// Service is the ingestion/deletion gateway: idempotent upsert-by-URL,
// bounded find-by-URL-then-delete, listings, and the dashboard stats
// rollup.
type Service struct {
	storage    storage.Storage
	embedder   embedder.Embedder
	chunker    *chunker.Chunker
	cache      CacheInvalidator
	namespaces []string

	deleteScanWindow   int
	syncChunkThreshold int
	recentLimit        int

	logger *slog.Logger
	bg     sync.WaitGroup
}

// New creates a Service. cache may be nil when no search cache exists
// (for example in the dashboard-only binary mode).
func New(store storage.Storage, emb embedder.Embedder, cache CacheInvalidator, cfg Config, logger *slog.Logger) *Service {
	if cfg.DeleteScanWindow <= 0 {
		cfg.DeleteScanWindow = DefaultDeleteScanWindow
	}
	if cfg.SyncChunkThreshold <= 0 {
		cfg.SyncChunkThreshold = DefaultSyncChunkThreshold
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		storage:            store,
		embedder:           emb,
		chunker:            chunker.New(),
		cache:              cache,
		namespaces:         cfg.Namespaces,
		deleteScanWindow:   cfg.DeleteScanWindow,
		syncChunkThreshold: cfg.SyncChunkThreshold,
		recentLimit:        cfg.RecentLimit,
		logger:             logger,
	}
}

// Ingest stores one document under its URL. The category names the
// target namespace directly and the namespace is created lazily on
// first write. Re-ingesting an existing URL replaces the entry and
// reports Replaced; that is never an error.
//
// Short documents are chunked and embedded before returning (status
// "ready"); documents above the sync threshold return "pending" and
// finish embedding in the background.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*types.IngestResult, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	if !s.isConfiguredNamespace(req.Category) {
		return nil, types.NewValidationError("category", fmt.Sprintf("%q is not a configured namespace", req.Category))
	}
	if req.Content == "" {
		return nil, types.ErrEmptyContent
	}

	title := req.Title
	if title == "" {
		title = req.URL
	}

	ns, err := s.storage.EnsureNamespace(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("ensure namespace: %w", err)
	}

	chunkTexts := s.chunker.Chunk(req.Content)
	chunks := make([]*storage.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = &storage.Chunk{Position: i, Content: text}
	}

	entry := &storage.Entry{
		EntryID:     uuid.NewString(),
		NamespaceID: ns.ID,
		Key:         req.URL,
		Title:       title,
		Status:      storage.EntryStatusPending,
		Category:    req.Category,
		AddedBy:     req.AddedBy,
		AddedByName: req.AddedByName,
		ChannelID:   req.ChannelID,
		SourceURL:   req.URL,
	}

	replaced, err := s.storage.UpsertEntry(ctx, entry, chunks)
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}

	metrics.IngestsTotal.WithLabelValues(req.Category).Inc()
	s.invalidate()

	result := &types.IngestResult{
		EntryID:   entry.EntryID,
		Namespace: req.Category,
		Replaced:  replaced,
	}

	if len(chunks) > s.syncChunkThreshold {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			// The request context dies with the caller; background
			// embedding outlives it.
			if err := s.embedAndPromote(context.Background(), entry.EntryID, chunks); err != nil {
				s.logger.Warn("background embedding failed", "entry", entry.EntryID, "error", err)
			}
		}()
		result.Status = storage.EntryStatusPending
		return result, nil
	}

	if err := s.embedAndPromote(ctx, entry.EntryID, chunks); err != nil {
		return nil, err
	}
	result.Status = storage.EntryStatusReady
	return result, nil
}

// embedAndPromote embeds every chunk and flips the entry to ready. A
// failure leaves the entry pending: visible to listings, invisible to
// vector search.
func (s *Service) embedAndPromote(ctx context.Context, entryID string, chunks []*storage.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	resp, err := s.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return types.NewUpstreamError("embedding", err)
	}

	for i, emb := range resp.Embeddings {
		err := s.storage.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunks[i].ID,
			Vector:    storage.SerializeVector(emb.Vector),
			Dimension: emb.Dimension,
			Provider:  emb.Provider,
			Model:     emb.Model,
		})
		if err != nil {
			return fmt.Errorf("store embedding: %w", err)
		}
	}

	if err := s.storage.SetEntryStatus(ctx, entryID, storage.EntryStatusReady); err != nil {
		return fmt.Errorf("promote entry: %w", err)
	}
	s.invalidate()
	return nil
}

// DeleteByURL scans each configured namespace's most recent entries, in
// configured order, for one whose source URL equals url and deletes the
// first match. A URL outside every namespace's scan window reports
// Deleted false, not an error.
func (s *Service) DeleteByURL(ctx context.Context, rawURL string) (*types.DeleteResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	for _, name := range s.namespaces {
		ns, err := s.storage.GetNamespace(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", name, err)
		}

		entries, err := s.storage.ListEntries(ctx, ns.ID, s.deleteScanWindow, true)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", name, err)
		}

		for _, entry := range entries {
			if entry.SourceURL != rawURL {
				continue
			}
			deleted, err := s.storage.DeleteEntryByKey(ctx, ns.ID, entry.Key)
			if err != nil {
				return nil, fmt.Errorf("delete entry: %w", err)
			}
			if !deleted {
				// raced with another delete; keep scanning
				continue
			}
			metrics.DeletesTotal.Inc()
			s.invalidate()
			return &types.DeleteResult{
				Deleted:   true,
				Namespace: name,
				Title:     entry.Title,
			}, nil
		}
	}

	return &types.DeleteResult{Deleted: false}, nil
}

// ListEntries returns entry summaries for one namespace or, with scope
// "all", for every configured namespace merged newest-first.
func (s *Service) ListEntries(ctx context.Context, scope string, limit int) ([]types.EntrySummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	targets := s.namespaces
	if scope != "" && scope != "all" {
		targets = []string{scope}
	}

	var mu sync.Mutex
	var summaries []types.EntrySummary

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range targets {
		name := name
		g.Go(func() error {
			ns, err := s.storage.GetNamespace(gctx, name)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("namespace %s: %w", name, err)
			}
			entries, err := s.storage.ListEntries(gctx, ns.ID, limit, true)
			if err != nil {
				return fmt.Errorf("list %s: %w", name, err)
			}
			mu.Lock()
			for _, entry := range entries {
				summaries = append(summaries, summarize(name, entry))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AddedAt.After(summaries[j].AddedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Stats builds the read-only dashboard rollup: total entry count,
// per-namespace counts in configured order, and the most recent entries
// across all namespaces.
func (s *Service) Stats(ctx context.Context) (*types.Stats, error) {
	stats := &types.Stats{
		PerNamespace: make([]types.NamespaceStats, len(s.namespaces)),
	}
	nsNames := make(map[int64]string, len(s.namespaces))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range s.namespaces {
		i, name := i, name
		g.Go(func() error {
			ns, err := s.storage.GetNamespace(gctx, name)
			if errors.Is(err, storage.ErrNotFound) {
				mu.Lock()
				stats.PerNamespace[i] = types.NamespaceStats{Namespace: name}
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("namespace %s: %w", name, err)
			}
			count, err := s.storage.CountEntries(gctx, ns.ID)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			mu.Lock()
			stats.PerNamespace[i] = types.NamespaceStats{Namespace: name, Count: count}
			stats.TotalEntries += count
			nsNames[ns.ID] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent, err := s.storage.ListRecentEntries(ctx, s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent entries: %w", err)
	}
	stats.RecentEntries = make([]types.EntrySummary, 0, len(recent))
	for _, entry := range recent {
		stats.RecentEntries = append(stats.RecentEntries, summarize(nsNames[entry.NamespaceID], entry))
	}
	return stats, nil
}

// Wait blocks until background embedding work has drained. Called on
// shutdown so pending entries are not stranded by an exiting process.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateCache()
	}
}

func (s *Service) isConfiguredNamespace(name string) bool {
	for _, ns := range s.namespaces {
		if ns == name {
			return true
		}
	}
	return false
}

func summarize(namespace string, entry *storage.Entry) types.EntrySummary {
	return types.EntrySummary{
		EntryID:   entry.EntryID,
		Namespace: namespace,
		Key:       entry.Key,
		Title:     entry.Title,
		URL:       entry.SourceURL,
		Status:    entry.Status,
		AddedBy:   entry.AddedBy,
		AddedAt:   entry.CreatedAt,
	}
}

// validateURL rejects anything that is not an absolute http(s) URL with
// a host, before any store access happens.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return types.NewValidationError("url", err.Error())
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return types.NewValidationError("url", "scheme must be http or https")
	}
	if parsed.Host == "" {
		return types.NewValidationError("url", "missing host")
	}
	return nil
}
