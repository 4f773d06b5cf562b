// Package mcp exposes content search as Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// ServerName is the MCP server name.
const ServerName = "tansaku"

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger *zap.Logger
}

// NewServer creates an MCP server with every tool registered.
func NewServer(a *app.App, logger *zap.Logger) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, app.Version, server.WithToolCapabilities(false)),
		app:    a,
		logger: utils.OrNop(logger),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio and blocks until stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchContentTool(), s.handleSearchContent)
	s.mcp.AddTool(getContentTool(), s.handleGetContent)
	s.mcp.AddTool(addContentTool(), s.handleAddContent)
	s.mcp.AddTool(findSimilarTool(), s.handleFindSimilar)
	s.mcp.AddTool(contentStatsTool(), s.handleContentStats)
	s.mcp.AddTool(suggestQueriesTool(), s.handleSuggestQueries)
}
