// Package tools exposes the query and action layers as MCP tools.
package tools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/bridge"
	"github.com/matheus3301/wppmcp/internal/query"
)

const ServerName = "wppmcp"

// Server wraps the MCP server with the query service and bridge client.
type Server struct {
	query  *query.Service
	bridge *bridge.Client
	log    *zap.Logger
	mcp    *mcp.Server
	names  []string
}

// NewServer creates the MCP server and registers every tool.
func NewServer(q *query.Service, b *bridge.Client, log *zap.Logger, version string) *Server {
	s := &Server{query: q, bridge: b, log: log}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	s.registerQueryTools()
	s.registerContactTools()
	s.registerActionTools()
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// ToolNames lists the registered tools in registration order.
func (s *Server) ToolNames() []string { return s.names }

// RunStdio serves on stdin/stdout until the client disconnects or ctx is
// cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}
