// Package iotesting provides shared test utilities for integration
// tests. This is an internal package for test infrastructure only.
package iotesting

import (
	"github.com/nycsafety/colldb/internal/ioconfig"
	"github.com/nycsafety/colldb/pkg/config"
)

// TestDatabaseName is the database name used for all integration tests.
// This ensures tests never accidentally run against a production
// warehouse.
const TestDatabaseName = "nyc_traffic_safety_test"

// GetTestConfig returns a configuration suitable for integration tests.
// It loads the standard config (from file or defaults) and overrides
// the database name to TestDatabaseName for safety.
//
// Usage in integration tests:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    cfg := iotesting.GetTestConfig()
//	    // ... use cfg for database operations
//	}
func GetTestConfig() *config.Config {
	result, err := ioconfig.Load("")

	var cfg *config.Config
	if err != nil {
		cfg = config.Defaults()
	} else {
		cfg = result.Config
	}

	cfg.MergeWithDefaults()
	cfg.Database.Database = TestDatabaseName

	return cfg
}

// GetTestDatabaseConfig returns only the database configuration for
// tests.
func GetTestDatabaseConfig() *config.DatabaseConfig {
	cfg := GetTestConfig()
	return &cfg.Database
}
