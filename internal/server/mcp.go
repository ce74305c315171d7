// Package server exposes the article summarizer as an MCP server over
// stdio.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/bsns-mcp/bsnsmcp-go/internal/summarize"
)

const (
	serverName    = "bsns-mcp"
	serverVersion = "0.1.0"

	summarizeToolName = "summarize_business_article"
)

// Server is the stdio MCP server.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	summarizer *summarize.Summarizer
	logger     *zap.Logger
}

// New wires the summarizer into a stdio MCP server.
func New(summarizer *summarize.Summarizer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L().Named("server")
	}

	s := &Server{
		summarizer: summarizer,
		logger:     logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	summarizeTool := mcp.NewTool(summarizeToolName,
		mcp.WithDescription("Fetch a business news article by URL and return a short summary of its key points."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the business news article to summarize"),
		),
	)
	s.mcpServer.AddTool(summarizeTool, s.handleSummarize)
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.logger.Info("summarize request", zap.String("url", articleURL))

	summary, err := s.summarizer.SummarizeURL(ctx, articleURL)
	if err != nil {
		s.logger.Warn("summarize failed", zap.String("url", articleURL), zap.Error(err))
		// Failures are reported as tool text so the calling model can
		// relay them instead of treating the call as a protocol error.
		return mcp.NewToolResultText(fmt.Sprintf("Error summarizing article: %v", err)), nil
	}

	return mcp.NewToolResultText("Business Article Summary:\n\n" + summary.Text()), nil
}

// ServeStdio blocks serving MCP on stdin/stdout until EOF or a fatal error.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio",
		zap.String("name", serverName),
		zap.String("version", serverVersion))
	return mcpserver.ServeStdio(s.mcpServer)
}

// MCPServer exposes the underlying server for in-process tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}
