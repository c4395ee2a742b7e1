// Package config provides configuration management for colldb.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Loading from files and environment variables lives in
// internal/ioconfig.
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > colldb.yaml > defaults
//
// # Environment Variables
//
// Use COLLDB_ prefix with underscores for nesting:
//
//	COLLDB_DATABASE_HOST=localhost
//	COLLDB_DATABASE_PORT=5432
//	COLLDB_LOG_LEVEL=info
//	COLLDB_JOBS_NUMBER=8
package config

import (
	"fmt"
	"runtime"
)

// Config represents the complete colldb configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Thresholds contains the warehouse policy knobs: severity tiering,
	// adverse-weather cutoffs and high-risk-hour rates. The source schema
	// defines the derived columns but not their numeric policies, so they
	// are configuration rather than constants.
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel
	// operations (record loading, per-key aggregate rebuilds).
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// MaxConnections caps the pgx connection pool size.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`

	// MinConnections keeps a floor of warm connections in the pool.
	MinConnections int `mapstructure:"min_connections" yaml:"min_connections"`

	// BatchSize defines the number of rows per bulk insert statement.
	// PostgreSQL caps statements at 65535 parameters, so the effective
	// batch is also bounded by parameters-per-row at load time.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// ThresholdsConfig holds derived-column policies.
type ThresholdsConfig struct {
	// SevereInjuries is the minimum persons_injured for a collision to be
	// tiered SEVERE (fatalities always win with FATAL).
	SevereInjuries int `mapstructure:"severe_injuries" yaml:"severe_injuries"`

	// AdverseVisibilityMeters marks weather adverse when visibility drops
	// below this many meters.
	AdverseVisibilityMeters float64 `mapstructure:"adverse_visibility_meters" yaml:"adverse_visibility_meters"`

	// AdversePrecipitationMM marks weather adverse when hourly
	// precipitation exceeds this many millimeters.
	AdversePrecipitationMM float64 `mapstructure:"adverse_precipitation_mm" yaml:"adverse_precipitation_mm"`

	// AdverseWindKMH marks weather adverse when wind speed exceeds this
	// many km/h.
	AdverseWindKMH float64 `mapstructure:"adverse_wind_kmh" yaml:"adverse_wind_kmh"`

	// HighRiskFatalityRate flags an hour high-risk when fatalities per
	// collision exceed this rate.
	HighRiskFatalityRate float64 `mapstructure:"high_risk_fatality_rate" yaml:"high_risk_fatality_rate"`

	// HighRiskInjuryRate flags an hour high-risk when injuries per
	// collision exceed this rate.
	HighRiskInjuryRate float64 `mapstructure:"high_risk_injury_rate" yaml:"high_risk_injury_rate"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format" yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults creates a Config with sensible default values.
// The returned config is always valid and ready to use.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Password:       "postgres",
			Database:       "nyc_traffic_safety",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
			BatchSize:      5_000,
		},
		Thresholds: ThresholdsConfig{
			SevereInjuries:          3,
			AdverseVisibilityMeters: 1000,
			AdversePrecipitationMM:  5.0,
			AdverseWindKMH:          30,
			HighRiskFatalityRate:    0.05,
			HighRiskInjuryRate:      0.5,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		JobsNumber: runtime.NumCPU(),
	}
}

// MergeWithDefaults fills zero-valued fields from Defaults so a
// partially specified config file still yields a usable Config.
func (c *Config) MergeWithDefaults() {
	d := Defaults()

	if c.Database.Host == "" {
		c.Database.Host = d.Database.Host
	}
	if c.Database.Port == 0 {
		c.Database.Port = d.Database.Port
	}
	if c.Database.User == "" {
		c.Database.User = d.Database.User
	}
	if c.Database.Password == "" {
		c.Database.Password = d.Database.Password
	}
	if c.Database.Database == "" {
		c.Database.Database = d.Database.Database
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = d.Database.SSLMode
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = d.Database.MaxConnections
	}
	if c.Database.MinConnections == 0 {
		c.Database.MinConnections = d.Database.MinConnections
	}
	if c.Database.BatchSize == 0 {
		c.Database.BatchSize = d.Database.BatchSize
	}

	if c.Thresholds.SevereInjuries == 0 {
		c.Thresholds.SevereInjuries = d.Thresholds.SevereInjuries
	}
	if c.Thresholds.AdverseVisibilityMeters == 0 {
		c.Thresholds.AdverseVisibilityMeters = d.Thresholds.AdverseVisibilityMeters
	}
	if c.Thresholds.AdversePrecipitationMM == 0 {
		c.Thresholds.AdversePrecipitationMM = d.Thresholds.AdversePrecipitationMM
	}
	if c.Thresholds.AdverseWindKMH == 0 {
		c.Thresholds.AdverseWindKMH = d.Thresholds.AdverseWindKMH
	}
	if c.Thresholds.HighRiskFatalityRate == 0 {
		c.Thresholds.HighRiskFatalityRate = d.Thresholds.HighRiskFatalityRate
	}
	if c.Thresholds.HighRiskInjuryRate == 0 {
		c.Thresholds.HighRiskInjuryRate = d.Thresholds.HighRiskInjuryRate
	}

	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.JobsNumber == 0 {
		c.JobsNumber = d.JobsNumber
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	switch c.Database.SSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid ssl_mode: %q", c.Database.SSLMode)
	}

	if c.Database.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.Database.BatchSize)
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf(
			"min_connections (%d) exceeds max_connections (%d)",
			c.Database.MinConnections, c.Database.MaxConnections,
		)
	}

	if c.Thresholds.SevereInjuries < 1 {
		return fmt.Errorf(
			"thresholds.severe_injuries must be at least 1, got %d",
			c.Thresholds.SevereInjuries,
		)
	}
	if c.Thresholds.HighRiskFatalityRate < 0 || c.Thresholds.HighRiskInjuryRate < 0 {
		return fmt.Errorf("high-risk rate thresholds must not be negative")
	}

	if c.JobsNumber < 1 {
		return fmt.Errorf("jobs_number must be positive, got %d", c.JobsNumber)
	}

	return nil
}
