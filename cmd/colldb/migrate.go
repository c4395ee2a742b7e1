package main

import (
	"context"
	"fmt"

	"github.com/nycsafety/colldb/internal/iodb"
	"github.com/nycsafety/colldb/internal/ioschema"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func getMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply all pending database migrations to bring the schema to the
latest version. Index DDL and reference seeds are re-applied; both are
idempotent.`,
		RunE: runMigrate,
	}
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer op.Close()

	fmt.Printf("Connected to database: %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	var sm lifecycle.SchemaManager = ioschema.NewManager(op)

	fmt.Println("Applying database migrations...")
	if err := sm.Migrate(ctx, cfg); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	fmt.Println("\n✓ Database migration complete!")
	return nil
}
