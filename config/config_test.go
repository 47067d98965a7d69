package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "concord.db", cfg.Database.Path)
	assert.False(t, cfg.Context.LocationEnabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concord.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[model]
provider = "openai"
name = "gpt-4o"
api_key = "sk-test"

[context]
location_enabled = true
location = "Lisbon, Portugal"
`), 0o600))

	cfg := Load(path)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.True(t, cfg.Context.LocationEnabled)
	assert.Equal(t, "Lisbon, Portugal", cfg.Context.Location)
	// Untouched sections keep their defaults.
	assert.Equal(t, "concord.db", cfg.Database.Path)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concord.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[model]
api_key = "sk-from-file"
`), 0o600))
	t.Setenv("CONCORD_API_KEY", "sk-from-env")

	cfg := Load(path)
	assert.Equal(t, "sk-from-env", cfg.Model.APIKey)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Equal(t, Default().Model.Provider, cfg.Model.Provider)
}
