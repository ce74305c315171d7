package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bsns-mcp/bsnsmcp-go/internal/summarize"
)

var summarizeTimeout time.Duration

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize a business news article from the command line",
	Long: `Fetch an article and print its summary without going through MCP.
Useful for checking extraction quality on a particular site.

Examples:
  bsnsmcp summarize https://example.com/news/quarterly-results
  bsnsmcp summarize --timeout=10s https://example.com/news/merger`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().DurationVar(&summarizeTimeout, "timeout", 30*time.Second, "Fetch timeout")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := summarize.Options{
		HTTPClient: &http.Client{Timeout: summarizeTimeout},
		Logger:     logger.Named("summarize"),
	}
	if cfg.Summarizer != nil {
		opts.Sentences = cfg.Summarizer.Sentences
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), summarizeTimeout+10*time.Second)
	defer cancel()

	summary, err := summarize.New(opts).SummarizeURL(ctx, args[0])
	if err != nil {
		return err
	}

	if summary.Title != "" {
		fmt.Printf("%s\n\n", summary.Title)
	}
	fmt.Println(summary.Text())
	return nil
}
