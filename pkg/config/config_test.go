package config_test

import (
	"runtime"
	"testing"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	t.Run("creates valid default config", func(t *testing.T) {
		require.NotNil(t, cfg)

		// Database defaults
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "nyc_traffic_safety", cfg.Database.Database)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 5_000, cfg.Database.BatchSize)

		// Policy defaults
		assert.Equal(t, 3, cfg.Thresholds.SevereInjuries)
		assert.InDelta(t, 1000, cfg.Thresholds.AdverseVisibilityMeters, 0.001)
		assert.InDelta(t, 30, cfg.Thresholds.AdverseWindKMH, 0.001)

		// Log defaults
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, "info", cfg.Log.Level)

		// JobsNumber defaults to CPU count
		assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)

		assert.NoError(t, cfg.Validate())
	})
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db.internal"
	cfg.Thresholds.SevereInjuries = 5

	cfg.MergeWithDefaults()

	// Explicit values survive the merge
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5, cfg.Thresholds.SevereInjuries)

	// Missing values are filled in
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.InDelta(t, 0.5, cfg.Thresholds.HighRiskInjuryRate, 0.001)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{
			name:   "bad port",
			mutate: func(c *config.Config) { c.Database.Port = 70000 },
		},
		{
			name:   "bad ssl mode",
			mutate: func(c *config.Config) { c.Database.SSLMode = "maybe" },
		},
		{
			name:   "zero batch size",
			mutate: func(c *config.Config) { c.Database.BatchSize = 0 },
		},
		{
			name: "min connections above max",
			mutate: func(c *config.Config) {
				c.Database.MinConnections = 20
				c.Database.MaxConnections = 10
			},
		},
		{
			name:   "zero severe injuries tier",
			mutate: func(c *config.Config) { c.Thresholds.SevereInjuries = 0 },
		},
		{
			name: "negative risk rate",
			mutate: func(c *config.Config) {
				c.Thresholds.HighRiskInjuryRate = -0.1
			},
		},
		{
			name:   "zero jobs",
			mutate: func(c *config.Config) { c.JobsNumber = 0 },
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			cfg := config.Defaults()
			v.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
