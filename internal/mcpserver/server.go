package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/retriever"
	"github.com/supplysight/ragapi/pkg/logx"
)

// Version is the MCP server version.
const Version = "1.0.0"

// Server exposes the knowledge base to MCP clients over stdio: semantic
// search, question answering and document listing as typed tools.
type Server struct {
	ragService rag.Service
	retriever  retriever.Retriever
	server     *mcp.Server
	logger     *logx.Logger
}

func NewServer(ragService rag.Service, ret retriever.Retriever) *Server {
	impl := &mcp.Implementation{
		Name:    "knowledge-base-rag",
		Version: Version,
	}

	s := &Server{
		ragService: ragService,
		retriever:  ret,
		server:     mcp.NewServer(impl, nil),
		logger:     logx.New("mcp_server"),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server running on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
