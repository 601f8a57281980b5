package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes read-only tools over one loaded
// topic.
type Server struct {
	doc *topic.Document
	mcp *server.MCPServer
}

// NewServer creates a new MCP server over doc.
func NewServer(doc *topic.Document) *Server {
	s := &Server{doc: doc}

	s.mcp = server.NewMCPServer(
		"topicreader",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(getTopicTool, s.handleGetTopic)
	s.mcp.AddTool(listPostsTool, s.handleListPosts)
	s.mcp.AddTool(getPostTool, s.handleGetPost)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
