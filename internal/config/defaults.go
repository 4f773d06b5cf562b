package config

import "time"

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// Embedding providers.
const (
	EmbeddingProviderRemote = "remote"
	EmbeddingProviderMock   = "mock"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendSQLite
	}
	if cfg.Store.Path == "" && cfg.Store.Backend != BackendMemory && cfg.Store.Backend != BackendQdrant {
		if cfg.Store.Backend == BackendBadger {
			cfg.Store.Path = "./data/badger"
		} else {
			cfg.Store.Path = "./data/tansaku.db"
		}
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "content_collection"
	}
	if cfg.Store.Qdrant.Host == "" {
		cfg.Store.Qdrant.Host = "localhost"
	}
	if cfg.Store.Qdrant.Port == 0 {
		cfg.Store.Qdrant.Port = 6334
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultBaseURL
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingProviderRemote
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.RateLimit == 0 {
		cfg.Embedding.RateLimit = 1500
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.0-flash-exp"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.LLM.RateLimit == 0 {
		cfg.LLM.RateLimit = 15
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.SimilarityThreshold == 0 {
		cfg.Search.SimilarityThreshold = 0.7
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30 * time.Second
	}
	if cfg.Search.SummaryWordThreshold == 0 {
		cfg.Search.SummaryWordThreshold = 100
	}
	if cfg.Search.SummaryWords == 0 {
		cfg.Search.SummaryWords = 50
	}
	if cfg.Search.VariantConcurrency == 0 {
		cfg.Search.VariantConcurrency = 4
	}
	if cfg.Content.MaxLength == 0 {
		cfg.Content.MaxLength = 10000
	}
	if cfg.Import.Workers == 0 {
		cfg.Import.Workers = 4
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "tansaku"
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1.0
	}
}
