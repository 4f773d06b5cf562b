package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/server"
	"github.com/hyperjump/tansaku/internal/vector"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"sourdough"}, "sourdough"},
		{"multiple words", []string{"neural", "networks"}, "neural networks"},
		{"single quoted phrase", []string{"neural networks"}, "neural networks"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSearchFlagsQuery(t *testing.T) {
	f := &searchFlags{limit: 3, category: "AI", difficulty: "Beginner", minSimilarity: 0.2, noExpand: true}

	q := f.query("go", false, false, 0.7)
	assert.Nil(t, q.MaxResults, "unset --limit leaves the server default")
	assert.Equal(t, 0.7, q.MinSimilarity)
	assert.Equal(t, "AI", q.CategoryFilter)
	assert.Equal(t, "Beginner", q.DifficultyFilter)
	assert.True(t, q.DisableExpansion)

	q = f.query("go", true, true, 0.7)
	require.NotNil(t, q.MaxResults)
	assert.Equal(t, 3, *q.MaxResults)
	assert.Equal(t, 0.2, q.MinSimilarity)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origWd) })
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9100
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	assert.Equal(t, configPathCanon, resolvedCanon)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
search:
  similarity_threshold: 0.4
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	cfg, resolved, err := loadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)

	g := &globals{configPath: configPath}
	assert.Equal(t, 0.4, g.defaultThreshold())
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	g := &globals{configPath: filepath.Join(t.TempDir(), "nope.yaml")}
	assert.Equal(t, config.Default().Search.SimilarityThreshold, g.defaultThreshold())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tansaku version "+app.Version+"\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Search.SimilarityThreshold)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "refuses to overwrite without --force")
	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

// writeDirectConfig writes a config using a sqlite store and mock embeddings.
func writeDirectConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "store:\n  backend: sqlite\n  path: " + filepath.Join(dir, "tansaku.db") + "\n" +
		"embedding:\n  provider: mock\n  dimensions: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDirectCommands(t *testing.T) {
	configPath := writeDirectConfig(t)

	out, err := execute(t, "--config", configPath, "add",
		"--title", "Go concurrency", "--content", "Goroutines and channels.",
		"--category", "Technology", "--tags", "go, concurrency", "--read-time", "5")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Content added: "), out)
	id := strings.TrimSpace(strings.TrimPrefix(out, "Content added: "))

	out, err = execute(t, "--config", configPath, "get", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Title: Go concurrency")
	assert.Contains(t, out, "Tags: go, concurrency")

	out, err = execute(t, "--config", configPath, "search", "--min-similarity", "-1", "--output", "compact", "Go", "concurrency")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = execute(t, "--config", configPath, "get", "missing-id")
	assert.Error(t, err)

	_, err = execute(t, "--config", configPath, "search", "--output", "yaml", "x")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	configPath := writeDirectConfig(t)
	file := filepath.Join(t.TempDir(), "items.json")
	data := `[
  {"title": "Bread", "content": "Flour and water.", "category": "Cooking", "difficulty": "Beginner", "read_time": 4},
  {"title": "", "content": "missing title", "category": "Cooking", "difficulty": "Beginner", "read_time": 1}
]`
	require.NoError(t, os.WriteFile(file, []byte(data), 0600))

	out, err := execute(t, "--config", configPath, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 item(s)")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "item 1")

	out, err = execute(t, "--config", configPath, "stats", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_content": 1`)

	_, err = execute(t, "--server", "http://localhost:1", "import", file)
	assert.Error(t, err)
}

func TestServerBackedCommands(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.Path = ""
	cfg.Embedding.Provider = config.EmbeddingProviderMock
	cfg.Embedding.Dimensions = 8
	a, err := app.NewWithStore(cfg, vector.NewMemoryStore(), nil)
	require.NoError(t, err)
	defer a.Close(context.Background())
	id, err := a.Repo.Add(context.Background(), &models.ContentInput{
		Title: "Sourdough", Content: "Flour, water and patience.", Category: "Cooking",
		Tags: []string{"bread"}, Difficulty: models.DifficultyAdvanced, ReadTime: 9,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(server.NewServer(a, &cfg.Server, nil).Handler())
	defer ts.Close()

	out, err := execute(t, "--server", ts.URL, "search", "--min-similarity", "-1", "--output", "json", "bread")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = execute(t, "--server", ts.URL, "suggest", "how", "to", "bake")
	require.NoError(t, err)
	assert.Contains(t, out, "Intent: Question")

	out, err = execute(t, "--server", ts.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total content:       1")

	_, err = execute(t, "--server", ts.URL, "get", "nope")
	assert.Error(t, err)
}
