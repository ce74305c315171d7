package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bsns-mcp/bsnsmcp-go/internal/server"
	"github.com/bsns-mcp/bsnsmcp-go/internal/summarize"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the summarization tool over MCP stdio",
	Long: `Run the MCP server on stdin/stdout. The server exposes the
summarize_business_article tool to MCP clients such as Claude Desktop.

Example client configuration:

  {
    "mcpServers": {
      "bsns-mcp": { "command": "bsnsmcp", "args": ["serve"] }
    }
  }`,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := summarize.Options{Logger: logger.Named("summarize")}
	if cfg.Summarizer != nil {
		opts.Sentences = cfg.Summarizer.Sentences
		if cfg.Summarizer.FetchTimeout > 0 {
			opts.HTTPClient = &http.Client{Timeout: cfg.Summarizer.FetchTimeout}
		}
	}

	srv := server.New(summarize.New(opts), logger.Named("server"))
	if err := srv.ServeStdio(); err != nil {
		logger.Error("stdio server stopped", zap.Error(err))
		return err
	}
	return nil
}
