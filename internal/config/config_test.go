package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Summarizer)
	assert.Equal(t, 3, cfg.Summarizer.Sentences)
	assert.NotEmpty(t, cfg.DataDir)
	require.NoError(t, cfg.Validate())
}

func TestValidateUpstream(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https url", "https://api.example.com/mcp", false},
		{"http url", "http://localhost:3000/mcp", false},
		{"missing url", "", true},
		{"relative url", "/mcp", true},
		{"bad scheme", "ftp://example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Upstream = &UpstreamConfig{URL: tt.url}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDefaultsUpstreamName(t *testing.T) {
	cfg := Default()
	cfg.Upstream = &UpstreamConfig{URL: "https://api.example.com/mcp"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "api.example.com", cfg.Upstream.Name)
}

func TestValidateSummarizerSentences(t *testing.T) {
	cfg := Default()
	cfg.Summarizer.Sentences = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	fileCfg := map[string]any{
		"data_dir": dir,
		"upstream": map[string]any{
			"name": "bsns",
			"url":  "https://api.bsns.test/mcp",
			"oauth": map[string]any{
				"scopes":       []string{"read", "write"},
				"flow_timeout": int64(2 * time.Minute),
			},
		},
	}
	data, err := json.Marshal(fileCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, path))
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.Upstream)
	assert.Equal(t, "bsns", cfg.Upstream.Name)
	require.NotNil(t, cfg.Upstream.OAuth)
	assert.Equal(t, []string{"read", "write"}, cfg.Upstream.OAuth.Scopes)
}

func TestLoadFromMissingFileIsNoop(t *testing.T) {
	cfg := Default()
	require.NoError(t, loadFromFile(cfg, filepath.Join(t.TempDir(), "absent.json")))
}
