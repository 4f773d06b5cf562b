package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
store:
  backend: sqlite
  path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Store.Path == "" {
		t.Error("store.path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("embedding dimensions should default to 768, got %d", cfg.Embedding.Dimensions)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_emptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8000 || cfg.Store.Backend != BackendSQLite {
		t.Errorf("defaults not applied: %+v", cfg.Server)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TANSAKU_SERVER_PORT", "9100")
	t.Setenv("TANSAKU_STORE_BACKEND", "memory")
	t.Setenv("GOOGLE_API_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("backend = %s, want memory", cfg.Store.Backend)
	}
	if cfg.Provider.APIKey != "secret" {
		t.Errorf("api key should come from GOOGLE_API_KEY, got %q", cfg.Provider.APIKey)
	}
	if !cfg.EmbeddingsEnabled() || !cfg.LLMEnabled() {
		t.Error("providers should be enabled when an api key is set")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  path: "./data/db/content.db"
import:
  watch_dir: "./inbox"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "content.db")
	if cfg.Store.Path != wantDB {
		t.Errorf("store.path = %s, want %s", cfg.Store.Path, wantDB)
	}
	wantWatch := filepath.Join(dir, "inbox")
	if cfg.Import.WatchDir != wantWatch {
		t.Errorf("import.watch_dir = %s, want %s", cfg.Import.WatchDir, wantWatch)
	}
	if cfg.Import.SampleFile != "" {
		t.Errorf("empty sample_file should stay empty, got %s", cfg.Import.SampleFile)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Store.Collection != "content_collection" {
		t.Errorf("default collection: got %s", cfg.Store.Collection)
	}
	if cfg.Embedding.Model != "text-embedding-004" || cfg.Embedding.RateLimit != 1500 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.LLM.Model != "gemini-2.0-flash-exp" || cfg.LLM.RateLimit != 15 || cfg.LLM.Temperature != 0.3 {
		t.Errorf("llm defaults: %+v", cfg.LLM)
	}
	if cfg.Search.DefaultMaxResults != 10 || cfg.Search.SimilarityThreshold != 0.7 {
		t.Errorf("search defaults: %+v", cfg.Search)
	}
	if cfg.Search.Timeout != 30*time.Second {
		t.Errorf("search timeout: got %v", cfg.Search.Timeout)
	}
}

func TestApplyDefaults_badgerPath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Backend: BackendBadger}}
	ApplyDefaults(cfg)
	if cfg.Store.Path != "./data/badger" {
		t.Errorf("badger path: got %s", cfg.Store.Path)
	}
	mem := &Config{Store: StoreConfig{Backend: BackendMemory}}
	ApplyDefaults(mem)
	if mem.Store.Path != "" {
		t.Errorf("memory backend should not get a path, got %s", mem.Store.Path)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if w := cfg.Validate(); len(w) != 1 {
		t.Errorf("expected only the missing api key warning, got %v", w)
	}
	cfg.Provider.APIKey = "k"
	cfg.LLM.Temperature = 3
	cfg.Store.Backend = "chroma"
	if w := cfg.Validate(); len(w) != 2 {
		t.Errorf("expected temperature and backend warnings, got %v", w)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Store.Path = "/tmp/db"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Search.Timeout != 30*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Search.Timeout)
	}
}
