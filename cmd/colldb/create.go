package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nycsafety/colldb/internal/iodb"
	"github.com/nycsafety/colldb/internal/ioschema"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/spf13/cobra"
)

var (
	forceCreate bool
)

func getCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the warehouse schema",
		Long: `Create the traffic-safety star schema from scratch.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Checks for existing tables and prompts for confirmation if found
  3. Creates dimension, fact and rollup tables using GORM AutoMigrate
  4. Applies the partial unique indexes for location deduplication
  5. Seeds the reference dimensions (weather conditions, vehicle types,
     contributing factors, borough centroids)

Use --force to skip confirmation and drop existing tables automatically.

Examples:
  colldb create
  colldb create --force
  colldb create --config custom.yaml`,
		RunE: runCreate,
	}

	cmd.Flags().BoolVar(&forceCreate, "force", false,
		"drop existing tables before creating schema (destructive)")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer op.Close()

	fmt.Printf("Connected to database: %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing tables: %w", err)
	}

	if hasTables {
		if forceCreate {
			fmt.Println("Dropping all existing tables (--force enabled)...")
			if err := op.DropAllTables(ctx); err != nil {
				return fmt.Errorf("failed to drop tables: %w", err)
			}
			fmt.Println("✓ All tables dropped")
		} else {
			fmt.Println("\n⚠️  Warning: Database contains existing tables.")
			fmt.Println("Creating schema will drop ALL existing tables and data.")
			fmt.Print("\nDo you want to continue? (yes/no): ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read user input: %w", err)
			}

			response = strings.TrimSpace(strings.ToLower(response))
			if response != "yes" && response != "y" {
				fmt.Println("Aborted. No changes made to the database.")
				return nil
			}

			fmt.Println("Dropping all existing tables...")
			if err := op.DropAllTables(ctx); err != nil {
				return fmt.Errorf("failed to drop tables: %w", err)
			}
			fmt.Println("✓ All tables dropped")
		}
	}

	var sm lifecycle.SchemaManager = ioschema.NewManager(op)

	fmt.Println("Creating schema using GORM AutoMigrate...")
	if err := sm.Create(ctx, cfg); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	fmt.Println("\n✓ Warehouse schema creation complete!")
	fmt.Println("\nNext steps:")
	fmt.Println("  - Run 'colldb load weather <extract>' to load weather readings")
	fmt.Println("  - Run 'colldb load collisions <extract>' to load collisions")
	fmt.Println("  - Run 'colldb aggregate' to rebuild hourly rollups")

	return nil
}
