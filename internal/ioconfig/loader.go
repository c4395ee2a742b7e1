// Package ioconfig provides I/O operations for loading configuration from
// files, environment variables and flags. This is an impure package that
// handles file system and flag operations.
package ioconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LoadResult contains the loaded configuration and metadata about the source.
type LoadResult struct {
	Config     *config.Config
	SourcePath string // Path to config file used, or empty if using defaults
	Source     string // "file", "defaults", or "defaults+env"
}

// Load reads configuration from a YAML file and returns a validated Config
// with source info. If configPath is empty, it looks for the file at the
// default location (~/.config/colldb/colldb.yaml).
//
// Returns error if the file is malformed or validation fails.
func Load(configPath string) (*LoadResult, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	// Precedence: flags > env vars > config file > defaults
	v.SetEnvPrefix("COLLDB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults must be registered before reading the file so that
	// AutomaticEnv knows which keys to check for env overrides.
	defaults := config.Defaults()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	v.SetDefault("database.max_connections", defaults.Database.MaxConnections)
	v.SetDefault("database.min_connections", defaults.Database.MinConnections)
	v.SetDefault("database.batch_size", defaults.Database.BatchSize)
	v.SetDefault("thresholds.severe_injuries", defaults.Thresholds.SevereInjuries)
	v.SetDefault("thresholds.adverse_visibility_meters", defaults.Thresholds.AdverseVisibilityMeters)
	v.SetDefault("thresholds.adverse_precipitation_mm", defaults.Thresholds.AdversePrecipitationMM)
	v.SetDefault("thresholds.adverse_wind_kmh", defaults.Thresholds.AdverseWindKMH)
	v.SetDefault("thresholds.high_risk_fatality_rate", defaults.Thresholds.HighRiskFatalityRate)
	v.SetDefault("thresholds.high_risk_injury_rate", defaults.Thresholds.HighRiskInjuryRate)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("jobs_number", defaults.JobsNumber)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultPath, err := GetDefaultConfigPath()
		if err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				v.SetConfigFile(defaultPath)
			}
		}
	}

	configFileRead := false
	usedConfigPath := ""

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if configPath != "" {
				// Explicit path that doesn't exist is an error.
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileRead = true
		usedConfigPath = v.ConfigFileUsed()
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.MergeWithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	source := "defaults"
	if configFileRead {
		source = "file"
	} else if hasEnvVars() {
		source = "defaults+env"
	}

	return &LoadResult{
		Config:     &cfg,
		SourcePath: usedConfigPath,
		Source:     source,
	}, nil
}

// hasEnvVars checks if any COLLDB_* environment variables are set.
func hasEnvVars() bool {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "COLLDB_") {
			return true
		}
	}
	return false
}

// BindFlags binds cobra command flags to viper and returns updated config.
// CLI flags take precedence over config file values.
func BindFlags(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	v := viper.New()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if v.IsSet("host") {
		cfg.Database.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		cfg.Database.Port = v.GetInt("port")
	}
	if v.IsSet("user") {
		cfg.Database.User = v.GetString("user")
	}
	if v.IsSet("password") {
		cfg.Database.Password = v.GetString("password")
	}
	if v.IsSet("database") {
		cfg.Database.Database = v.GetString("database")
	}
	if v.IsSet("ssl-mode") {
		cfg.Database.SSLMode = v.GetString("ssl-mode")
	}
	if v.IsSet("jobs") {
		cfg.JobsNumber = v.GetInt("jobs")
	}
	if v.IsSet("batch-size") {
		cfg.Database.BatchSize = v.GetInt("batch-size")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after flag binding: %w", err)
	}

	return cfg, nil
}
