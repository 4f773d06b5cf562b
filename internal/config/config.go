// Package config provides configuration loading and structs for the tansaku server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides (TANSAKU_SERVER_PORT, ...).
const EnvPrefix = "TANSAKU"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" mapstructure:"debug"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Provider  ProviderConfig  `yaml:"provider" mapstructure:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Content   ContentConfig   `yaml:"content" mapstructure:"content"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Tracing   TracingConfig   `yaml:"tracing" mapstructure:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// StoreConfig selects and locates the vector store.
type StoreConfig struct {
	// Backend is one of sqlite, badger, qdrant, memory.
	Backend    string       `yaml:"backend" mapstructure:"backend"`
	Path       string       `yaml:"path" mapstructure:"path"`
	Collection string       `yaml:"collection" mapstructure:"collection"`
	Qdrant     QdrantConfig `yaml:"qdrant" mapstructure:"qdrant"`
}

// QdrantConfig holds the gRPC address of a Qdrant server.
type QdrantConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// ProviderConfig holds credentials for the OpenAI-compatible AI provider.
// An empty APIKey puts embeddings and generation in degraded mode.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	// Provider is "remote" (default) or "mock" for offline deterministic vectors.
	Provider   string        `yaml:"provider" mapstructure:"provider"`
	Model      string        `yaml:"model" mapstructure:"model"`
	Dimensions int           `yaml:"dimensions" mapstructure:"dimensions"`
	RateLimit  int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	CacheSize  int           `yaml:"cache_size" mapstructure:"cache_size"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig holds generative model settings.
type LLMConfig struct {
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimit   int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	DefaultMaxResults    int           `yaml:"default_max_results" mapstructure:"default_max_results"`
	MaxLimit             int           `yaml:"max_limit" mapstructure:"max_limit"`
	SimilarityThreshold  float64       `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	Timeout              time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SummaryWordThreshold int           `yaml:"summary_word_threshold" mapstructure:"summary_word_threshold"`
	SummaryWords         int           `yaml:"summary_words" mapstructure:"summary_words"`
	VariantConcurrency   int           `yaml:"variant_concurrency" mapstructure:"variant_concurrency"`
}

// ContentConfig holds limits for stored content.
type ContentConfig struct {
	MaxLength int `yaml:"max_length" mapstructure:"max_length"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	Workers    int    `yaml:"workers" mapstructure:"workers"`
	SampleFile string `yaml:"sample_file" mapstructure:"sample_file"`
	WatchDir   string `yaml:"watch_dir" mapstructure:"watch_dir"`
}

// TracingConfig holds OpenTelemetry exporter settings. An empty Endpoint disables export.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// envKeys are bound explicitly so environment values reach Unmarshal even
// when the key is absent from the config file.
var envKeys = []string{
	"debug",
	"server.host", "server.port",
	"store.backend", "store.path", "store.collection", "store.qdrant.host", "store.qdrant.port",
	"provider.base_url",
	"embedding.provider", "embedding.model", "embedding.dimensions", "embedding.rate_limit",
	"llm.model", "llm.temperature", "llm.rate_limit",
	"search.similarity_threshold", "search.timeout",
	"import.sample_file", "import.watch_dir",
	"tracing.endpoint",
}

// Load reads the config file at path (when non-empty), overlays environment
// variables, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "GOOGLE_API_KEY")

	configDir := "."
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	cfg.Store.Path = expandPath(cfg.Store.Path, configDir)
	cfg.Import.SampleFile = expandPath(cfg.Import.SampleFile, configDir)
	cfg.Import.WatchDir = expandPath(cfg.Import.WatchDir, configDir)

	return &cfg, nil
}

// Save writes the config to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string
	if c.Provider.APIKey == "" && c.Embedding.Provider != EmbeddingProviderMock {
		warnings = append(warnings, "provider.api_key is empty: embeddings use placeholder vectors and query expansion is disabled")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("llm.temperature %.2f is outside recommended range [0.0, 2.0]", c.LLM.Temperature))
	}
	if c.Search.SimilarityThreshold < -1 || c.Search.SimilarityThreshold > 1 {
		warnings = append(warnings, fmt.Sprintf("search.similarity_threshold %.2f is outside [-1, 1]", c.Search.SimilarityThreshold))
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendBadger, BackendQdrant, BackendMemory:
	default:
		warnings = append(warnings, fmt.Sprintf("store.backend %q is not one of sqlite, badger, qdrant, memory", c.Store.Backend))
	}
	return warnings
}

// EmbeddingsEnabled reports whether a remote embedding backend is configured.
func (c *Config) EmbeddingsEnabled() bool {
	return c.Embedding.Provider == EmbeddingProviderMock || c.Provider.APIKey != ""
}

// LLMEnabled reports whether a generative backend is configured.
func (c *Config) LLMEnabled() bool {
	return c.Provider.APIKey != ""
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
