package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.Embedding.Provider = config.EmbeddingProviderMock
	cfg.Embedding.Dimensions = 8
	a, err := app.NewWithStore(cfg, vector.NewMemoryStore(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return NewServer(a, nil)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func addItem(t *testing.T, s *Server, title, category string) string {
	t.Helper()
	res := call(t, s.handleAddContent, "add_content", map[string]any{
		"title": title, "content": "About " + title, "category": category,
		"difficulty": models.DifficultyIntermediate, "read_time": float64(4),
		"author": "Kay", "tags": "alpha, beta",
	})
	require.False(t, res.IsError, text(t, res))
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	return out["content_id"]
}

func TestAddAndGetContent(t *testing.T) {
	s := newTestServer(t)
	id := addItem(t, s, "Channels", "Technology")

	res := call(t, s.handleGetContent, "get_content", map[string]any{"id": id})
	require.False(t, res.IsError)
	var item models.ContentItem
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &item))
	assert.Equal(t, "Channels", item.Title)
	assert.Equal(t, []string{"alpha", "beta"}, item.Tags)
	assert.Equal(t, 4, item.ReadTime)

	res = call(t, s.handleGetContent, "get_content", map[string]any{"id": "nope"})
	assert.True(t, res.IsError)
	assert.Equal(t, "content not found", text(t, res))
}

func TestAddContent_invalid(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s.handleAddContent, "add_content", map[string]any{"title": "x", "read_time": 1.5})
	assert.True(t, res.IsError)
	res = call(t, s.handleAddContent, "add_content", map[string]any{"title": "x"})
	assert.True(t, res.IsError)
}

func TestSearchContent(t *testing.T) {
	s := newTestServer(t)
	addItem(t, s, "Channels", "Technology")
	addItem(t, s, "Sourdough", "Cooking")

	res := call(t, s.handleSearchContent, "search_content", map[string]any{
		"query": "bread", "max_results": float64(5), "min_similarity": float64(-1), "category_filter": "Cooking",
	})
	require.False(t, res.IsError, text(t, res))
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Sourdough", resp.Results[0].Title)

	res = call(t, s.handleSearchContent, "search_content", map[string]any{})
	assert.True(t, res.IsError)
	res = call(t, s.handleSearchContent, "search_content", map[string]any{"query": "x", "max_results": "ten"})
	assert.True(t, res.IsError)
}

func TestFindSimilarStatsAndSuggestions(t *testing.T) {
	s := newTestServer(t)
	id := addItem(t, s, "Channels", "Technology")
	addItem(t, s, "Goroutines", "Technology")

	res := call(t, s.handleFindSimilar, "find_similar", map[string]any{"id": id, "max_results": float64(2)})
	require.False(t, res.IsError, text(t, res))
	var similar struct {
		ContentID    string `json:"content_id"`
		TotalResults int    `json:"total_results"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &similar))
	assert.Equal(t, id, similar.ContentID)

	res = call(t, s.handleFindSimilar, "find_similar", map[string]any{"id": "missing"})
	assert.True(t, res.IsError)

	res = call(t, s.handleContentStats, "content_stats", nil)
	var st models.Stats
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &st))
	assert.Equal(t, 2, st.TotalContent)
	assert.Equal(t, 1, st.TotalSearches)

	res = call(t, s.handleSuggestQueries, "suggest_queries", map[string]any{"query": "why go"})
	var sug models.Suggestions
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &sug))
	assert.Equal(t, "Question", sug.IntentAnalysis.QueryType)
}

func TestOptInt(t *testing.T) {
	n, ok, err := optInt(map[string]any{"k": float64(3)}, "k")
	assert.Equal(t, 3, n)
	assert.True(t, ok)
	assert.NoError(t, err)

	_, ok, err = optInt(map[string]any{}, "k")
	assert.False(t, ok)
	assert.NoError(t, err)

	_, _, err = optInt(map[string]any{"k": 2.5}, "k")
	assert.Error(t, err)
}
