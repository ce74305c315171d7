package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load resolves the effective configuration: defaults, then the config file
// if one exists, then environment variables and bound flags via viper.
func Load() (*Config, error) {
	setupViper()

	cfg := Default()

	configPath := viper.GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("apply flags and environment: %w", err)
	}

	// The upstream URL is the one setting worth a plain flag.
	if u := viper.GetString("upstream-url"); u != "" {
		if cfg.Upstream == nil {
			cfg.Upstream = &UpstreamConfig{}
		}
		cfg.Upstream.URL = u
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViper() {
	viper.SetEnvPrefix("BSNSMCP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault("config", "")
	viper.SetDefault("data-dir", defaultDataDir())
	viper.SetDefault("upstream-url", "")
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(homeDir, ".bsnsmcp", "config.json")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
