// bsnsmcp serves a business news summarization tool over MCP stdio and
// manages OAuth authentication for protected upstream MCP servers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var (
	configFile  string
	dataDir     string
	upstreamURL string
	logLevel    string
	logDir      string
	logToFile   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "bsnsmcp",
		Short:   "Business news MCP server with OAuth client support",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: ~/.bsnsmcp)")
	rootCmd.PersistentFlags().StringVarP(&upstreamURL, "upstream-url", "u", "", "Upstream MCP server URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Enable logging to file in standard OS location")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("upstream-url", rootCmd.PersistentFlags().Lookup("upstream-url"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
