package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gistlabs/knowbase/internal/config"
	"github.com/gistlabs/knowbase/internal/dashboard"
	"github.com/gistlabs/knowbase/internal/embedder"
	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/mcp"
	"github.com/gistlabs/knowbase/internal/searcher"
	"github.com/gistlabs/knowbase/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to knowbase.yaml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("knowbase MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "knowbase: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout is reserved for MCP protocol; everything else goes to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Info("starting", "version", version, "driver", storage.DriverName, "namespaces", cfg.Namespaces)

	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	emb, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()
	logger.Info("embedder ready", "provider", emb.Provider(), "model", emb.Model(), "dimension", emb.Dimension())

	srch := searcher.New(store, emb, searcher.Config{
		Namespaces:    cfg.Namespaces,
		LexicalWindow: cfg.Search.LexicalWindow,
		CacheSize:     cfg.Search.CacheSize,
		CacheTTL:      cfg.Search.CacheTTL,
	}, logger)

	svc := knowledge.New(store, emb, srch, knowledge.Config{
		Namespaces:         cfg.Namespaces,
		DeleteScanWindow:   cfg.Ingest.DeleteScanWindow,
		SyncChunkThreshold: cfg.Ingest.SyncChunkThreshold,
		RecentLimit:        cfg.Ingest.RecentLimit,
	}, logger)

	server := mcp.NewServer(srch, svc, cfg.Namespaces)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dash *dashboard.Server
	if cfg.Dashboard.Enabled {
		dash = dashboard.New(svc, logger)
		go func() {
			if err := dash.Start(cfg.Dashboard.Addr); err != nil {
				logger.Warn("dashboard stopped", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	if dash != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := dash.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown", "error", err)
		}
	}

	// drain deferred embedding work before closing storage
	svc.Wait()
	logger.Info("stopped")
	return nil
}

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	if cfg.Embedder.Provider == "" {
		return embedder.NewFromEnv()
	}
	apiKey := cfg.Embedder.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(embedder.EnvOpenAIAPIKey)
	}
	return embedder.New(embedder.Config{
		Provider:  cfg.Embedder.Provider,
		APIKey:    apiKey,
		BaseURL:   cfg.Embedder.OllamaURL,
		CacheSize: cfg.Embedder.CacheSize,
	})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
