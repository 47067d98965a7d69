// Package config loads assistant configuration from TOML with environment
// overrides.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Model    ModelConfig    `toml:"model"`
	Database DatabaseConfig `toml:"database"`
	Context  ContextConfig  `toml:"context"`
}

type ModelConfig struct {
	// Provider selects the model adapter: "anthropic" or "openai".
	Provider string `toml:"provider"`
	Name     string `toml:"name"`
	APIKey   string `toml:"api_key"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ContextConfig struct {
	// LocationEnabled adds a location block to the refreshed context.
	LocationEnabled bool   `toml:"location_enabled"`
	Location        string `toml:"location"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Model:    ModelConfig{Provider: "anthropic", Name: "claude-sonnet-4-20250514"},
		Database: DatabaseConfig{Path: "concord.db"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "concord.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("CONCORD_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("CONCORD_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("CONCORD_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	return cfg
}
