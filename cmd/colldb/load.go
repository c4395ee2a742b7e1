package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nycsafety/colldb/internal/iodb"
	"github.com/nycsafety/colldb/internal/ioload"
	"github.com/nycsafety/colldb/internal/iosource"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func getLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load extracts into the fact tables",
		Long: `Load collision or weather extracts into the warehouse.

Extracts can be CSV files or SQLite staging databases (detected by the
.sqlite/.db extension). Loads are idempotent: re-ingesting a record with
the same natural key replaces it in place.

Load weather before collisions so collision facts can attach the
weather condition in effect for their hour and borough.`,
	}

	cmd.AddCommand(getLoadCollisionsCmd())
	cmd.AddCommand(getLoadWeatherCmd())
	return cmd
}

func getLoadCollisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collisions <extract>",
		Short: "Load a collision extract",
		Long: `Load a collision extract into fact_collisions.

Each record's dimensions (datetime, location, vehicle types,
contributing factors) are resolved insert-if-absent; malformed records
are rejected individually and counted.

Examples:
  colldb load collisions collisions_2023.csv
  colldb load collisions staging.sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: runLoadCollisions,
	}
}

func getLoadWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather <extract>",
		Short: "Load a weather extract",
		Long: `Load an hourly weather extract into fact_weather. Readings anchor to
borough centroid locations.

Examples:
  colldb load weather weather_2023.csv
  colldb load weather staging.sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: runLoadWeather,
	}
}

// isSQLitePath reports whether an extract path names a staging SQLite
// database rather than a CSV file.
func isSQLitePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".sqlite") ||
		strings.HasSuffix(lower, ".sqlite3") ||
		strings.HasSuffix(lower, ".db")
}

func connectOperator(ctx context.Context) (db.Operator, error) {
	cfg := getConfig()

	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fmt.Printf("Connected to database: %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	return op, nil
}

func runLoadCollisions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	var src lifecycle.CollisionSource
	var err error
	if isSQLitePath(path) {
		src, err = iosource.NewCollisionSQLite(path)
	} else {
		src, err = iosource.NewCollisionCSV(path)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	op, err := connectOperator(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	loader := ioload.NewLoader(op, getConfig())
	stats, err := loader.LoadCollisions(ctx, src)
	if err != nil {
		return fmt.Errorf("collision load failed: %w", err)
	}

	fmt.Printf("\n✓ Collision load complete! (run %s)\n", stats.RunID)
	fmt.Printf("  read: %d  loaded: %d  rejected: %d  warnings: %d\n",
		stats.Read, stats.Loaded, stats.Rejected, stats.Warnings)
	fmt.Println("\nNext step:")
	fmt.Println("  - Run 'colldb aggregate' to rebuild hourly rollups")
	return nil
}

func runLoadWeather(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	var src lifecycle.WeatherSource
	var err error
	if isSQLitePath(path) {
		src, err = iosource.NewWeatherSQLite(path)
	} else {
		src, err = iosource.NewWeatherCSV(path)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	op, err := connectOperator(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	loader := ioload.NewLoader(op, getConfig())
	stats, err := loader.LoadWeather(ctx, src)
	if err != nil {
		return fmt.Errorf("weather load failed: %w", err)
	}

	fmt.Printf("\n✓ Weather load complete! (run %s)\n", stats.RunID)
	fmt.Printf("  read: %d  loaded: %d  rejected: %d  warnings: %d\n",
		stats.Read, stats.Loaded, stats.Rejected, stats.Warnings)
	return nil
}
