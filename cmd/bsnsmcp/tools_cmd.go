package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

var (
	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call tools on the upstream server",
	}

	toolsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List tools the upstream server advertises",
		RunE:  runToolsList,
	}

	toolsCallCmd = &cobra.Command{
		Use:   "call <tool-name>",
		Short: "Call an upstream tool",
		Long: `Call a tool on the configured upstream server. Arguments are passed as
a JSON object via --args.

Example:
  bsnsmcp tools call summarize_business_article --args='{"url":"https://example.com/news/1"}'`,
		Args: cobra.ExactArgs(1),
		RunE: runToolsCall,
	}

	toolsCallArgs string
	toolsTimeout  time.Duration
)

func init() {
	toolsCallCmd.Flags().StringVar(&toolsCallArgs, "args", "{}", "Tool arguments as a JSON object")
	toolsCmd.PersistentFlags().DurationVar(&toolsTimeout, "timeout", 3*time.Minute, "Request timeout")
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, db, err := openUpstream(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), toolsTimeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	if len(tools) == 0 {
		fmt.Println("No tools advertised.")
		return nil
	}
	for _, tool := range tools {
		fmt.Printf("%s\n", tool.Name)
		if tool.Description != "" {
			fmt.Printf("    %s\n", tool.Description)
		}
	}
	return nil
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(toolsCallArgs), &toolArgs); err != nil {
		return fmt.Errorf("parse --args: %w", err)
	}

	client, db, err := openUpstream(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), toolsTimeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}

	result, err := client.CallTool(ctx, args[0], toolArgs)
	if err != nil {
		return err
	}

	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			fmt.Println(tc.Text)
		}
	}
	if result.IsError {
		return fmt.Errorf("tool %s reported an error", args[0])
	}
	return nil
}
