// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables with the KNOWBASE_ prefix
//  2. Config file (knowbase.yaml in ~/.knowbase or the working directory)
//  3. Default values
//
// The configured namespace list is the single source of truth for every
// component that fans out per namespace: the searcher, the knowledge
// service, and the MCP tool schemas all receive it from here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrNoNamespaces indicates the namespace list is empty.
	ErrNoNamespaces = errors.New("at least one namespace must be configured")

	// ErrReservedNamespace indicates a namespace collides with the
	// aggregate search scope.
	ErrReservedNamespace = errors.New("namespace name is reserved")

	// ErrDuplicateNamespace indicates the namespace list repeats a name.
	ErrDuplicateNamespace = errors.New("duplicate namespace")

	// ErrInvalidProvider indicates the embedding provider is not supported.
	ErrInvalidProvider = errors.New("invalid embedding provider")
)

// scopeAll is the aggregate search scope; no namespace may claim it.
const scopeAll = "all"

// DefaultNamespaces is used when no namespace list is configured.
var DefaultNamespaces = []string{"competitors", "research", "internal", "general"}

// EmbedderConfig selects and tunes the embedding provider.
type EmbedderConfig struct {
	Provider  string `mapstructure:"provider"` // "openai", "ollama", or "local"; empty means auto-detect
	APIKey    string `mapstructure:"api_key"`  // SENSITIVE: never logged
	OllamaURL string `mapstructure:"ollama_url"`
	CacheSize int    `mapstructure:"cache_size"`
}

// SearchConfig tunes the search cascade.
type SearchConfig struct {
	LexicalWindow int           `mapstructure:"lexical_window"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// IngestConfig tunes the ingestion and deletion paths.
type IngestConfig struct {
	DeleteScanWindow   int `mapstructure:"delete_scan_window"`
	SyncChunkThreshold int `mapstructure:"sync_chunk_threshold"`
	RecentLimit        int `mapstructure:"recent_limit"`
}

// DashboardConfig controls the read-only HTTP API.
type DashboardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config stores application configuration.
type Config struct {
	Namespaces []string        `mapstructure:"namespaces"`
	DBPath     string          `mapstructure:"db_path"`
	LogLevel   string          `mapstructure:"log_level"`
	Embedder   EmbedderConfig  `mapstructure:"embedder"`
	Search     SearchConfig    `mapstructure:"search"`
	Ingest     IngestConfig    `mapstructure:"ingest"`
	Dashboard  DashboardConfig `mapstructure:"dashboard"`
}

// Load reads configuration from file and environment. path may name an
// explicit config file; when empty the default search paths are used
// and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("knowbase")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".knowbase"))
		}
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("KNOWBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file on the default search path is fine; an explicit
		// path that cannot be read is not.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("namespaces", DefaultNamespaces)
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("log_level", "info")

	v.SetDefault("embedder.provider", "")
	v.SetDefault("embedder.ollama_url", "")
	v.SetDefault("embedder.cache_size", 10000)

	v.SetDefault("search.lexical_window", 50)
	v.SetDefault("search.cache_size", 1000)
	v.SetDefault("search.cache_ttl", 5*time.Minute)

	v.SetDefault("ingest.delete_scan_window", 100)
	v.SetDefault("ingest.sync_chunk_threshold", 8)
	v.SetDefault("ingest.recent_limit", 20)

	v.SetDefault("dashboard.enabled", true)
	v.SetDefault("dashboard.addr", ":8090")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "knowbase.db"
	}
	return filepath.Join(home, ".knowbase", "knowbase.db")
}

// Validate fails fast on configuration that would misbehave at runtime.
func (c *Config) Validate() error {
	if len(c.Namespaces) == 0 {
		return ErrNoNamespaces
	}
	seen := make(map[string]bool, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		if ns == scopeAll {
			return fmt.Errorf("%w: %q", ErrReservedNamespace, ns)
		}
		if ns == "" {
			return fmt.Errorf("%w: empty name", ErrDuplicateNamespace)
		}
		if seen[ns] {
			return fmt.Errorf("%w: %q", ErrDuplicateNamespace, ns)
		}
		seen[ns] = true
	}

	switch strings.ToLower(c.Embedder.Provider) {
	case "", "openai", "ollama", "local":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Embedder.Provider)
	}

	if c.Search.LexicalWindow < 1 {
		return fmt.Errorf("search.lexical_window must be positive, got %d", c.Search.LexicalWindow)
	}
	if c.Ingest.DeleteScanWindow < 1 {
		return fmt.Errorf("ingest.delete_scan_window must be positive, got %d", c.Ingest.DeleteScanWindow)
	}
	if c.Ingest.SyncChunkThreshold < 1 {
		return fmt.Errorf("ingest.sync_chunk_threshold must be positive, got %d", c.Ingest.SyncChunkThreshold)
	}
	return nil
}

// String implements Stringer without exposing the API key.
func (c Config) String() string {
	return fmt.Sprintf("Config{namespaces=%v db=%s provider=%s dashboard=%s}",
		c.Namespaces, c.DBPath, c.Embedder.Provider, c.Dashboard.Addr)
}
