package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gistlabs/knowbase/internal/embedder"
	"github.com/gistlabs/knowbase/internal/metrics"
	"github.com/gistlabs/knowbase/internal/storage"
	"github.com/gistlabs/knowbase/pkg/types"
)

// ScopeAll fans a search out across every configured namespace.
const ScopeAll = "all"

const (
	// DefaultLimit is used when the caller passes limit <= 0.
	DefaultLimit = 5
	// MaxLimit caps the requested result count.
	MaxLimit = 50

	// vectorScoreFloor is applied inside the index; candidates below it
	// never reach the orchestrator.
	vectorScoreFloor = 0.4
	// vectorConfidence short-circuits at decision point 1: a top vector
	// score at or above it is trusted without running the lexical stage.
	vectorConfidence = 0.5
	// titleKeepFloor is the minimum title-match score worth returning.
	titleKeepFloor = 0.3
	// titleLeadScore promotes the lexical stage to lead a hybrid result.
	titleLeadScore = 0.5

	defaultLexicalWindow = 50
	defaultCacheSize     = 1000
	defaultCacheTTL      = 5 * time.Minute
)

// Config tunes a Searcher. Zero values fall back to defaults; Namespaces
// must carry the configured namespace list so that "all" fan-out and the
// lexical stage agree with ingestion on what exists.
type Config struct {
	Namespaces    []string
	LexicalWindow int // most-recent entries per namespace scanned by the title stage
	CacheSize     int
	CacheTTL      time.Duration
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *types.SearchResponse
	expiresAt time.Time
}

// Searcher runs the two-stage search cascade: a per-namespace vector
// fan-out, then a lexical title-match fallback, combined under the
// decision policy described in the package documentation.
type Searcher struct {
	storage       storage.Storage
	embedder      embedder.Embedder
	namespaces    []string
	lexicalWindow int
	cacheTTL      time.Duration
	logger        *slog.Logger
	cache         *lru.Cache[[32]byte, *cacheEntry]
	cacheMu       sync.RWMutex
}

// New creates a Searcher. The embedding provider and store are explicit
// collaborators; nothing here reaches for globals.
func New(store storage.Storage, emb embedder.Embedder, cfg Config, logger *slog.Logger) *Searcher {
	if cfg.LexicalWindow <= 0 {
		cfg.LexicalWindow = defaultLexicalWindow
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache, err := lru.New[[32]byte, *cacheEntry](cfg.CacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage:       store,
		embedder:      emb,
		namespaces:    cfg.Namespaces,
		lexicalWindow: cfg.LexicalWindow,
		cacheTTL:      cfg.CacheTTL,
		logger:        logger,
		cache:         cache,
	}
}

// Search runs the cascade for query against the given scope (a namespace
// name or "all") and returns at most limit results.
//
// The decision policy, evaluated in order:
//  1. Stage A queries the vector index per namespace. If the top merged
//     score is at or above 0.5, it is returned alone as method "vector".
//  2. Stage B scores recent entry titles against the query keywords. If
//     its top score is above 0.5, its results lead and non-duplicate
//     (by URL) vector hits are appended: method "hybrid".
//  3. Otherwise whichever stage produced anything wins ("vector" before
//     "title_match"), or the response is empty with method "none".
//
// A namespace that fails mid-fan-out contributes zero results and a log
// line, never an error; an UpstreamError surfaces only when no namespace
// succeeded anywhere in the cascade.
func (s *Searcher) Search(ctx context.Context, query, scope string, limit int) (*types.SearchResponse, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	targets := s.namespaces
	if scope != "" && scope != ScopeAll {
		targets = []string{scope}
	}
	if len(targets) == 0 {
		return &types.SearchResponse{Results: []types.ResultItem{}, Method: types.MethodNone}, nil
	}

	hash := computeQueryHash(query, scope, limit)
	if cached := s.checkCache(hash); cached != nil {
		metrics.SearchCacheHitsTotal.Inc()
		return cached, nil
	}

	stageA, aOK := s.vectorStage(ctx, query, targets, limit)

	// Decision point 1: a confident semantic match short-circuits
	if len(stageA) > 0 && stageA[0].Score >= vectorConfidence {
		return s.respond(hash, stageA, types.MethodVector), nil
	}

	keywords := tokenizeQuery(query)
	var stageB []types.ResultItem
	bRan := len(keywords) > 0
	bOK := false
	if bRan {
		stageB, bOK = s.lexicalStage(ctx, keywords, targets, limit)
	}

	// Decision point 2: strong title matches lead, vector hits follow.
	// The two score scales are not comparable, so the combined list is
	// never re-sorted across methods.
	if len(stageB) > 0 && stageB[0].Score > titleLeadScore {
		merged := mergeHybrid(stageB, stageA, limit)
		return s.respond(hash, merged, types.MethodHybrid), nil
	}

	if len(stageA) > 0 {
		return s.respond(hash, stageA, types.MethodVector), nil
	}
	if len(stageB) > 0 {
		return s.respond(hash, stageB, types.MethodTitleMatch), nil
	}

	if !aOK && (!bRan || !bOK) {
		return nil, types.NewUpstreamError("search", errors.New("no namespace could be queried"))
	}
	return s.respond(hash, nil, types.MethodNone), nil
}

// vectorStage fans the query embedding out to every target namespace,
// merges the per-namespace hits, and truncates to limit. The returned
// bool reports whether at least one namespace call succeeded; an absent
// namespace counts as success with zero results.
func (s *Searcher) vectorStage(ctx context.Context, query string, targets []string, limit int) ([]types.ResultItem, bool) {
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		if errors.Is(err, embedder.ErrEmptyText) {
			// an empty query has nothing to embed; the stage legitimately
			// produced zero results rather than failing
			return nil, true
		}
		s.logger.Warn("query embedding failed", "error", err)
		return nil, false
	}

	perNamespace := int(math.Ceil(float64(limit)/float64(len(targets)))) + 2

	var mu sync.Mutex
	var items []types.ResultItem
	succeeded := 0

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range targets {
		name := name
		g.Go(func() error {
			ns, err := s.storage.GetNamespace(gctx, name)
			if errors.Is(err, storage.ErrNotFound) {
				// never created, contributes zero results
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			}
			if err != nil {
				s.logger.Warn("namespace lookup failed", "namespace", name, "error", err)
				return nil
			}

			hits, err := s.storage.SearchVector(gctx, ns.ID, emb.Vector, perNamespace, vectorScoreFloor)
			if err != nil {
				s.logger.Warn("vector search failed", "namespace", name, "error", err)
				return nil
			}

			nsItems := make([]types.ResultItem, 0, len(hits))
			for _, hit := range hits {
				item, err := s.buildVectorItem(gctx, name, hit)
				if err != nil {
					s.logger.Warn("result hydration failed", "namespace", name, "chunk", hit.ChunkID, "error", err)
					continue
				}
				nsItems = append(nsItems, item)
			}

			mu.Lock()
			items = append(items, nsItems...)
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // sub-failures degrade, they are never returned

	items = dedupeByEntry(items)
	sortByScore(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, succeeded > 0
}

// dedupeByEntry collapses chunk-level hits so each entry appears at
// most once, represented by its best-scoring chunk. Several chunks of
// one document clearing the score floor is common for a focused query.
func dedupeByEntry(items []types.ResultItem) []types.ResultItem {
	if len(items) < 2 {
		return items
	}
	best := make(map[string]types.ResultItem, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		prev, seen := best[item.EntryID]
		if !seen {
			best[item.EntryID] = item
			order = append(order, item.EntryID)
			continue
		}
		if item.Score > prev.Score {
			best[item.EntryID] = item
		}
	}
	out := make([]types.ResultItem, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// buildVectorItem hydrates a raw vector hit into a result item, pulling
// one neighboring chunk on each side for preview context.
func (s *Searcher) buildVectorItem(ctx context.Context, namespace string, hit storage.VectorResult) (types.ResultItem, error) {
	prev, match, next, err := s.storage.GetChunkWithNeighbors(ctx, hit.ChunkID)
	if err != nil {
		return types.ResultItem{}, err
	}

	entry, err := s.storage.GetEntryByRowID(ctx, match.EntryID)
	if err != nil {
		return types.ResultItem{}, err
	}

	var parts []string
	for _, c := range []*storage.Chunk{prev, match, next} {
		if c != nil {
			parts = append(parts, c.Content)
		}
	}

	return types.ResultItem{
		Namespace: namespace,
		EntryID:   entry.EntryID,
		Title:     entry.Title,
		URL:       entry.SourceURL,
		Preview:   strings.Join(parts, "\n\n"),
		Score:     hit.SimilarityScore,
		Method:    types.MethodVector,
	}, nil
}

// lexicalStage scores the titles of each namespace's most recent entries
// against the keyword set, keeping matches above the floor.
func (s *Searcher) lexicalStage(ctx context.Context, keywords, targets []string, limit int) ([]types.ResultItem, bool) {
	var mu sync.Mutex
	var items []types.ResultItem
	succeeded := 0

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range targets {
		name := name
		g.Go(func() error {
			ns, err := s.storage.GetNamespace(gctx, name)
			if errors.Is(err, storage.ErrNotFound) {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			}
			if err != nil {
				s.logger.Warn("namespace lookup failed", "namespace", name, "error", err)
				return nil
			}

			entries, err := s.storage.ListEntries(gctx, ns.ID, s.lexicalWindow, true)
			if err != nil {
				s.logger.Warn("entry listing failed", "namespace", name, "error", err)
				return nil
			}

			var nsItems []types.ResultItem
			for _, entry := range entries {
				score := scoreTitle(entry.Title, keywords)
				if score <= titleKeepFloor {
					continue
				}
				nsItems = append(nsItems, types.ResultItem{
					Namespace: name,
					EntryID:   entry.EntryID,
					Title:     entry.Title,
					URL:       entry.SourceURL,
					Preview:   entry.Title,
					Score:     score,
					Method:    types.MethodTitleMatch,
				})
			}

			mu.Lock()
			items = append(items, nsItems...)
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sortByScore(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, succeeded > 0
}

// mergeHybrid places title matches first and appends vector hits whose
// URL does not duplicate one already present. Items without a URL are
// never considered duplicates of each other.
func mergeHybrid(titleResults, vectorResults []types.ResultItem, limit int) []types.ResultItem {
	merged := make([]types.ResultItem, 0, len(titleResults)+len(vectorResults))
	merged = append(merged, titleResults...)

	seen := make(map[string]struct{}, len(titleResults))
	for _, item := range titleResults {
		if item.URL != "" {
			seen[item.URL] = struct{}{}
		}
	}
	for _, item := range vectorResults {
		if item.URL != "" {
			if _, dup := seen[item.URL]; dup {
				continue
			}
		}
		merged = append(merged, item)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// respond finalizes a search outcome: records the method metric, caches
// the response, and returns it.
func (s *Searcher) respond(hash [32]byte, results []types.ResultItem, method types.Method) *types.SearchResponse {
	if results == nil {
		results = []types.ResultItem{}
	}
	response := &types.SearchResponse{
		Results: results,
		Method:  method,
	}
	metrics.SearchesTotal.WithLabelValues(string(method)).Inc()
	s.storeInCache(hash, response)
	return response
}

// checkCache returns a copy of a live cached response, or nil on miss.
func (s *Searcher) checkCache(hash [32]byte) *types.SearchResponse {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Copy while holding the read lock so the entry cannot change mid-copy
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) storeInCache(hash [32]byte, response *types.SearchResponse) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached query. Called on every ingest and
// delete; the LRU has no way to target individual namespaces, and write
// traffic is rare compared to searches.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copyResponse creates a deep copy of a SearchResponse so cached entries
// are never aliased by callers.
func copyResponse(src *types.SearchResponse) *types.SearchResponse {
	if src == nil {
		return nil
	}
	dst := &types.SearchResponse{
		Method:  src.Method,
		Results: make([]types.ResultItem, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// computeQueryHash computes a stable cache key over the full request
func computeQueryHash(query, scope string, limit int) [32]byte {
	var data strings.Builder
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(scope)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d", limit)
	return sha256.Sum256([]byte(data.String()))
}

// sortByScore orders results by score descending. The sort is stable so
// equal scores keep their fan-out arrival order within a namespace.
func sortByScore(items []types.ResultItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
