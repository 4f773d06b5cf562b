package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/models"
)

func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query, err := requireString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := &models.SearchQuery{
		Query:            query,
		CategoryFilter:   optString(args, "category_filter"),
		DifficultyFilter: optString(args, "difficulty_filter"),
		DisableExpansion: optBool(args, "disable_expansion"),
	}
	if n, ok, err := optInt(args, "max_results"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if ok {
		q.MaxResults = &n
	}
	if v, ok := args["min_similarity"]; ok {
		f, isNum := v.(float64)
		if !isNum {
			return mcp.NewToolResultError("min_similarity must be a number"), nil
		}
		q.MinSimilarity = f
	}

	resp, err := s.app.Engine.Search(ctx, q)
	if err != nil {
		s.logger.Warn("mcp search failed", zap.String("query", query), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp), nil
}

func (s *Server) handleGetContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(arguments(request), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.app.Repo.GetByID(ctx, id)
	if err != nil {
		return contentError(err), nil
	}
	return jsonResult(item), nil
}

func (s *Server) handleAddContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	readTime, _, err := optInt(args, "read_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input := &models.ContentInput{
		Title:      optString(args, "title"),
		Content:    optString(args, "content"),
		Category:   optString(args, "category"),
		Tags:       content.ParseTags(optString(args, "tags")),
		Difficulty: optString(args, "difficulty"),
		ReadTime:   readTime,
		Author:     optString(args, "author"),
		CreatedAt:  optString(args, "created_at"),
	}
	id, err := s.app.Repo.Add(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{"message": "Content added successfully", "content_id": id}), nil
}

func (s *Server) handleFindSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, err := requireString(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxResults, _, err := optInt(args, "max_results")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	similar, err := s.app.Similar(ctx, id, maxResults)
	if err != nil {
		return contentError(err), nil
	}
	return jsonResult(map[string]any{
		"content_id":      id,
		"similar_content": similar,
		"total_results":   len(similar),
	}), nil
}

func (s *Server) handleContentStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.app.Stats(ctx)), nil
}

func (s *Server) handleSuggestQueries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireString(arguments(request), "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.app.Suggester.Suggest(ctx, query)), nil
}

func contentError(err error) *mcp.CallToolResult {
	if errors.Is(err, content.ErrNotFound) {
		return mcp.NewToolResultError("content not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return v, nil
}

func optString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func optBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// optInt reads a JSON number that must be integral.
func optInt(args map[string]any, key string) (int, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	f, isNum := v.(float64)
	if !isNum || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), true, nil
}
