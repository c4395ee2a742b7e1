package ioconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nycsafety/colldb/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configDir, err := GetConfigDir()
	require.NoError(t, err)

	expectedDir := filepath.Join(tempHome, ".config", "colldb")
	assert.Equal(t, expectedDir, configDir)
}

func TestGetDefaultConfigPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath, err := GetDefaultConfigPath()
	require.NoError(t, err)

	expectedPath := filepath.Join(tempHome, ".config", "colldb", "colldb.yaml")
	assert.Equal(t, expectedPath, configPath)
	assert.True(t, filepath.IsAbs(configPath))
}

func TestGenerateDefaultConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	t.Run("creates config file", func(t *testing.T) {
		configPath, err := GenerateDefaultConfig()
		require.NoError(t, err)

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, templates.ConfigYAML, string(content))

		err = ValidateGeneratedConfig(configPath)
		assert.NoError(t, err, "generated config should be valid")
	})

	t.Run("does not overwrite existing file", func(t *testing.T) {
		configPath, err := GetDefaultConfigPath()
		require.NoError(t, err)
		require.FileExists(t, configPath)

		_, err = GenerateDefaultConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestLoadDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	result, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "defaults", result.Source)
	assert.Empty(t, result.SourcePath)
	assert.Equal(t, "localhost", result.Config.Database.Host)
	assert.Equal(t, 5432, result.Config.Database.Port)
	assert.Equal(t, "nyc_traffic_safety", result.Config.Database.Database)
	assert.Equal(t, 3, result.Config.Thresholds.SevereInjuries)
}

func TestLoadFromFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "colldb.yaml")
	content := `
database:
  host: warehouse.internal
  port: 5433
thresholds:
  severe_injuries: 5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	result, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "file", result.Source)
	assert.Equal(t, configPath, result.SourcePath)
	assert.Equal(t, "warehouse.internal", result.Config.Database.Host)
	assert.Equal(t, 5433, result.Config.Database.Port)
	assert.Equal(t, 5, result.Config.Thresholds.SevereInjuries)
	assert.Equal(t, "debug", result.Config.Log.Level)

	// Unspecified values fall back to defaults.
	assert.Equal(t, "postgres", result.Config.Database.User)
	assert.Equal(t, 5_000, result.Config.Database.BatchSize)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	_, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadEnvOverride(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("COLLDB_DATABASE_HOST", "env-host")
	t.Setenv("COLLDB_JOBS_NUMBER", "3")

	result, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "defaults+env", result.Source)
	assert.Equal(t, "env-host", result.Config.Database.Host)
	assert.Equal(t, 3, result.Config.JobsNumber)
}

func TestLoadInvalidConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "colldb.yaml")
	content := `
database:
  ssl_mode: bogus
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
