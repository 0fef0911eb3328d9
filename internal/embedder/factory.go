package embedder

import (
	"fmt"
	"os"
	"strings"
)

// EnvEmbeddingProvider selects a provider explicitly
const EnvEmbeddingProvider = "KNOWBASE_EMBEDDING_PROVIDER"

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string // Ollama endpoint; ignored by other providers
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. KNOWBASE_EMBEDDING_PROVIDER (openai, ollama, local)
// 2. OPENAI_API_KEY present: use OpenAI
// 3. Default to local if no API key found
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvEmbeddingProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)

	cache := NewCache(10000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIProvider(openaiKey, cache)
		case ProviderOllama:
			return NewOllamaProvider("", cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect based on available API keys
	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}

	// Fallback to local provider
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvEmbeddingProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}
