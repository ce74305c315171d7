// Package config defines the application configuration and its loader.
// Settings come from a JSON config file, environment variables with the
// BSNSMCP prefix, and CLI flags, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for the bsnsmcp daemon and CLI.
type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data-dir"`

	// Upstream is the MCP server whose tools this client consumes.
	Upstream *UpstreamConfig `json:"upstream,omitempty" mapstructure:"upstream"`

	// Summarizer tunes article extraction and summarization.
	Summarizer *SummarizerConfig `json:"summarizer,omitempty" mapstructure:"summarizer"`

	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`
}

// UpstreamConfig describes a remote MCP server reachable over streamable
// HTTP, with optional OAuth protection.
type UpstreamConfig struct {
	Name    string            `json:"name" mapstructure:"name"`
	URL     string            `json:"url" mapstructure:"url"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
	Timeout time.Duration     `json:"timeout,omitempty" mapstructure:"timeout"`

	OAuth *OAuthConfig `json:"oauth,omitempty" mapstructure:"oauth"`
}

// OAuthConfig tunes the authorization code flow for an upstream server.
// Endpoints are discovered from server metadata when not set here.
type OAuthConfig struct {
	ClientName string   `json:"client_name,omitempty" mapstructure:"client-name"`
	Scopes     []string `json:"scopes,omitempty" mapstructure:"scopes"`

	// ClientID and ClientSecret are used when the client is registered
	// out of band. When empty, dynamic registration runs.
	ClientID     string `json:"client_id,omitempty" mapstructure:"client-id"`
	ClientSecret string `json:"client_secret,omitempty" mapstructure:"client-secret"`

	// FlowTimeout bounds the interactive browser flow.
	FlowTimeout time.Duration `json:"flow_timeout,omitempty" mapstructure:"flow-timeout"`
}

// SummarizerConfig tunes the article summarizer.
type SummarizerConfig struct {
	// Sentences is how many sentences a summary contains.
	Sentences int `json:"sentences,omitempty" mapstructure:"sentences"`
	// FetchTimeout bounds the article download.
	FetchTimeout time.Duration `json:"fetch_timeout,omitempty" mapstructure:"fetch-timeout"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"`
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

// Default returns the configuration used when no file or flags are given.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Summarizer: &SummarizerConfig{
			Sentences:    3,
			FetchTimeout: 30 * time.Second,
		},
		Logging: &LogConfig{
			Level:         "info",
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bsnsmcp")
	}
	return filepath.Join(homeDir, ".bsnsmcp")
}

// Validate checks the configuration for inconsistencies that would only
// surface later at connect time.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir must not be empty")
	}
	if c.Upstream != nil {
		if c.Upstream.URL == "" {
			return fmt.Errorf("upstream.url is required when an upstream is configured")
		}
		u, err := url.Parse(c.Upstream.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("upstream.url %q is not an absolute URL", c.Upstream.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("upstream.url scheme %q is not supported", u.Scheme)
		}
		if c.Upstream.Name == "" {
			c.Upstream.Name = u.Host
		}
	}
	if c.Summarizer != nil && c.Summarizer.Sentences < 1 {
		return fmt.Errorf("summarizer.sentences must be at least 1")
	}
	return nil
}
