package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "knowbase-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	searcher   *searcher.Searcher
	service    *knowledge.Service
	namespaces []string
}

// NewServer creates the MCP tool surface over an already-wired searcher
// and knowledge service. namespaces drives the category enums in the
// tool schemas so the model only sees valid choices.
func NewServer(srch *searcher.Searcher, svc *knowledge.Service, namespaces []string) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:        mcpServer,
		searcher:   srch,
		service:    svc,
		namespaces: namespaces,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool(s.namespaces), s.handleSearchKnowledge)
	s.mcp.AddTool(listEntriesTool(s.namespaces), s.handleListEntries)
	s.mcp.AddTool(ingestContentTool(s.namespaces), s.handleIngestContent)
	s.mcp.AddTool(deleteEntryTool(), s.handleDeleteEntry)
	s.mcp.AddTool(knowledgeStatsTool(), s.handleKnowledgeStats)
}
