package main

import (
	"context"
	"fmt"

	"github.com/nycsafety/colldb/internal/ioaggregate"
	"github.com/nycsafety/colldb/internal/iodb"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/spf13/cobra"
)

func getAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Rebuild the hourly rollup table",
		Long: `Rebuild agg_hourly_stats from the fact tables.

Every (datetime, location) key with collision or weather facts is
recomputed and replaced wholesale, one transaction per key, fanned out
across the configured number of workers. Rebuilds are safe to re-run at
any time.

Examples:
  colldb aggregate
  COLLDB_JOBS_NUMBER=16 colldb aggregate`,
		RunE: runAggregate,
	}
	return cmd
}

func runAggregate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer op.Close()

	fmt.Printf("Connected to database: %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	agg := ioaggregate.NewAggregator(op, cfg)

	rebuilt, err := agg.RebuildAll(ctx)
	if err != nil {
		return fmt.Errorf("aggregate rebuild failed: %w", err)
	}

	fmt.Printf("\n✓ Hourly rollups rebuilt for %d keys!\n", rebuilt)
	return nil
}
