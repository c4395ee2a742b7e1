package main

import (
	"fmt"
	"log/slog"

	"github.com/nycsafety/colldb/internal/ioconfig"
	pkgconfig "github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *pkgconfig.Config
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "colldb",
		Short: "colldb manages the NYC traffic-safety warehouse lifecycle",
		Long: `colldb is a CLI tool for managing the complete lifecycle of the NYC
traffic-safety PostgreSQL warehouse, from schema creation through fact
loading and aggregate rebuilds.

The tool provides four main phases:
  - create:    Create the star schema and seed reference dimensions
  - migrate:   Apply schema migrations
  - load:      Ingest collision and weather extracts into fact tables
  - aggregate: Rebuild the hourly rollup table

Configuration precedence (highest to lowest):
  1. CLI flags (--host, --port, etc.)
  2. Environment variables (COLLDB_*)
  3. Config file (colldb.yaml)
  4. Built-in defaults

Environment Variables:
  All configuration can be set via COLLDB_* environment variables.
  Nested fields use underscores (database.host -> COLLDB_DATABASE_HOST).

  Examples:
    COLLDB_DATABASE_HOST            PostgreSQL host
    COLLDB_DATABASE_PORT            PostgreSQL port
    COLLDB_DATABASE_USER            PostgreSQL user
    COLLDB_DATABASE_PASSWORD        PostgreSQL password
    COLLDB_DATABASE_DATABASE        Database name
    COLLDB_DATABASE_BATCH_SIZE      Rows per bulk insert
    COLLDB_LOG_LEVEL                Log level (debug/info/warn/error)
    COLLDB_JOBS_NUMBER              Concurrent workers

  See 'go doc github.com/nycsafety/colldb/pkg/config' for the complete
  list.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-generate config file on first run if it doesn't exist
			if cfgFile == "" {
				exists, err := ioconfig.ConfigFileExists()
				if err != nil {
					return fmt.Errorf("failed to check config file: %w", err)
				}

				if !exists {
					generatedPath, err := ioconfig.GenerateDefaultConfig()
					if err != nil {
						// Only warn, don't fail - can use defaults
						fmt.Printf("Warning: could not generate config file: %v\n", err)
					} else {
						fmt.Printf("Generated default config at: %s\n", generatedPath)
					}
				}
			}

			result, err := ioconfig.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = result.Config

			slog.SetDefault(logger.New(&cfg.Log))

			switch result.Source {
			case "file":
				fmt.Printf("Using config from: %s\n", result.SourcePath)
			case "defaults+env":
				fmt.Println("Using built-in defaults with environment variable overrides")
			case "defaults":
				fmt.Println("Using built-in defaults (no config file)")
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.config/colldb/colldb.yaml)")

	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getMigrateCmd())
	rootCmd.AddCommand(getLoadCmd())
	rootCmd.AddCommand(getAggregateCmd())

	return rootCmd
}

// getConfig returns the loaded configuration (for use in subcommands)
func getConfig() *pkgconfig.Config {
	return cfg
}
